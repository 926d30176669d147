package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/rzbill/jobq/internal/runtime"
	"github.com/rzbill/jobq/internal/server/http/controllers"
	jobsvc "github.com/rzbill/jobq/internal/services/jobs"
	queuesvc "github.com/rzbill/jobq/internal/services/queues"
	"github.com/rzbill/jobq/pkg/id"
	logpkg "github.com/rzbill/jobq/pkg/log"
)

// Server exposes the broker over HTTP.
type Server struct {
	rt     *runtime.Runtime
	srv    *http.Server
	lis    net.Listener
	logger logpkg.Logger
}

// New builds a Server with all controller routes registered.
func New(rt *runtime.Runtime) *Server {
	logger := logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel)).With(logpkg.Component("http"))
	return NewWithLogger(rt, logger)
}

// NewWithLogger builds a Server with a custom logger shared by the services.
func NewWithLogger(rt *runtime.Runtime, logger logpkg.Logger) *Server {
	mux := http.NewServeMux()
	s := &Server{rt: rt, logger: logger}
	registry := controllers.NewControllerRegistry(
		rt,
		queuesvc.NewWithLogger(rt, logger.With(logpkg.Component("queues"))),
		jobsvc.NewWithLogger(rt, logger.With(logpkg.Component("jobs"))),
	)
	registry.RegisterAllRoutes(mux)
	s.srv = &http.Server{Handler: cors(s.requestID(mux))}
	return s
}

// ListenAndServe serves until the context is cancelled, then shuts down
// gracefully within the configured shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l
	s.logger.Info("http server listening", logpkg.Str("addr", l.Addr().String()))
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()
	select {
	case <-ctx.Done():
		timeout := s.rt.Config().Server.ShutdownTimeout.Std()
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		cctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		_ = s.srv.Shutdown(cctx)
		return nil
	case err := <-errCh:
		return err
	}
}

// Addr returns the bound listener address, or "" before ListenAndServe.
func (s *Server) Addr() string {
	if s.lis == nil {
		return ""
	}
	return s.lis.Addr().String()
}

// Close force-closes the listener.
func (s *Server) Close() {
	if s.lis != nil {
		_ = s.lis.Close()
	}
}

// Handler returns the full middleware-wrapped handler for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// statusWriter records the status code written by a handler.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// requestID tags every request with an id, echoed back in a response header,
// and logs method/path/status/duration per request.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get("X-Request-Id")
		if rid == "" {
			rid = id.RequestID()
		}
		w.Header().Set("X-Request-Id", rid)
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sw, r)
		s.logger.Debug("request",
			logpkg.Str("method", r.Method),
			logpkg.Str("path", r.URL.Path),
			logpkg.Int("status", sw.status),
			logpkg.Dur("duration", time.Since(start)),
			logpkg.Str("request_id", id.Short(rid)))
	})
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
