package serverrun

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	cfgpkg "github.com/rzbill/jobq/internal/config"
	"github.com/rzbill/jobq/internal/runtime"
	httpserver "github.com/rzbill/jobq/internal/server/http"
	"github.com/rzbill/jobq/internal/staging"
	logpkg "github.com/rzbill/jobq/pkg/log"
)

// Options for starting the broker process.
type Options struct {
	DataDir  string
	HTTPAddr string
	Config   cfgpkg.Config
}

// Run starts the HTTP server and the staging janitor and blocks until ctx is
// cancelled.
func Run(ctx context.Context, opts Options) error {
	// Be robust to callers that don't pass a signal-aware context.
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	procLogger, err := logpkg.ApplyConfig(&opts.Config.Log)
	if err != nil {
		lvl := logpkg.InfoLevel
		if l, e := logpkg.ParseLevel(opts.Config.Log.Level); e == nil {
			lvl = l
		}
		procLogger = logpkg.NewLogger(logpkg.WithLevel(lvl), logpkg.WithFormatter(&logpkg.TextFormatter{}))
	}

	// Redirect stdlib logs (e.g., Pebble) to our logger
	logpkg.RedirectStdLog(procLogger)

	rt, err := runtime.Open(runtime.Options{DataDir: opts.DataDir, Config: opts.Config})
	if err != nil {
		return err
	}
	defer rt.Close()

	httpAddr := opts.HTTPAddr
	if httpAddr == "" {
		httpAddr = opts.Config.Server.HTTPAddr
	}

	procLogger.Info("starting jobq server",
		logpkg.Str("http", httpAddr),
		logpkg.Str("data_dir", rt.DataDir()),
		logpkg.Str("fsync", opts.Config.Storage.Fsync),
		logpkg.Dur("next_job_delay", opts.Config.Server.NextJobDelay.Std()),
	)

	janitor, err := staging.NewJanitor(
		rt.Staging(),
		procLogger.With(logpkg.Component("janitor")),
		opts.Config.Staging.JanitorSchedule,
		opts.Config.Staging.RetainFor.Std(),
	)
	if err != nil {
		return err
	}
	janitor.Start()
	defer janitor.Stop()

	hsrv := httpserver.NewWithLogger(rt, procLogger.With(logpkg.Component("http")))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := hsrv.ListenAndServe(sctx, httpAddr); err != nil && sctx.Err() == nil {
			procLogger.Error("http server error", logpkg.Err(err))
		}
	}()

	<-sctx.Done()
	// Close the listener before the runtime/DB to avoid in-flight races.
	hsrv.Close()
	wg.Wait()
	return nil
}
