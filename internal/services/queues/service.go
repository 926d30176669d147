package queuesvc

import (
	"context"

	"github.com/rzbill/jobq/internal/qerr"
	"github.com/rzbill/jobq/internal/queuestore"
	"github.com/rzbill/jobq/internal/runtime"
	logpkg "github.com/rzbill/jobq/pkg/log"
)

// Service implements the queue lifecycle operations: upsert with a
// created/updated outcome, delete, and the settings/size/job-id reads.
type Service struct {
	rt     *runtime.Runtime
	logger logpkg.Logger
}

// New creates a queues service with a default logger.
func New(rt *runtime.Runtime) *Service {
	return NewWithLogger(rt, logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel)).With(logpkg.Component("queues")))
}

// NewWithLogger creates a queues service with a custom logger.
func NewWithLogger(rt *runtime.Runtime, logger logpkg.Logger) *Service {
	if logger == nil {
		logger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel)).With(logpkg.Component("queues"))
	}
	return &Service{rt: rt, logger: logger}
}

// unexpected reports whether an error should be logged at error level.
// Absence conditions and input validation are normal client outcomes.
func unexpected(err error) bool {
	switch qerr.KindOf(err) {
	case qerr.KindNoSuchQueue, qerr.KindBadRequest, qerr.KindNotFound:
		return false
	}
	return true
}

// List returns all queue names.
func (s *Service) List(ctx context.Context) ([]string, error) {
	conn, err := s.rt.Pool().Get(ctx)
	if err != nil {
		return nil, err
	}
	defer s.rt.Pool().Put(conn)
	names, err := conn.Store().ListQueueNames(ctx)
	if err != nil {
		s.logger.Error("failed to list queues", logpkg.Err(err))
		return nil, err
	}
	return names, nil
}

// CreateOrUpdate upserts a queue's settings, reporting whether the queue was
// created or replaced. Invalid settings never partially apply.
func (s *Service) CreateOrUpdate(ctx context.Context, name string, rawSettings []byte) (queuestore.Outcome, error) {
	conn, err := s.rt.Pool().Get(ctx)
	if err != nil {
		return 0, err
	}
	defer s.rt.Pool().Put(conn)
	out, err := conn.Store().CreateOrUpdateQueue(ctx, name, rawSettings)
	if err != nil {
		if unexpected(err) {
			s.logger.Error("failed to create/update queue", logpkg.Str("queue", name), logpkg.Err(err))
		}
		return 0, err
	}
	s.logger.Info("queue "+out.String(), logpkg.Str("queue", name))
	return out, nil
}

// Delete removes a queue and its queued jobs. Returns false when the queue
// does not exist.
func (s *Service) Delete(ctx context.Context, name string) (bool, error) {
	conn, err := s.rt.Pool().Get(ctx)
	if err != nil {
		return false, err
	}
	defer s.rt.Pool().Put(conn)
	deleted, err := conn.Store().DeleteQueue(ctx, name)
	if err != nil {
		if unexpected(err) {
			s.logger.Error("failed to delete queue", logpkg.Str("queue", name), logpkg.Err(err))
		}
		return false, err
	}
	if deleted {
		s.logger.Info("queue deleted", logpkg.Str("queue", name))
	}
	return deleted, nil
}

// Settings returns a queue's settings.
func (s *Service) Settings(ctx context.Context, name string) (queuestore.Settings, error) {
	conn, err := s.rt.Pool().Get(ctx)
	if err != nil {
		return queuestore.Settings{}, err
	}
	defer s.rt.Pool().Put(conn)
	settings, err := conn.Store().Settings(ctx, name)
	if err != nil && unexpected(err) {
		s.logger.Error("failed to fetch queue settings", logpkg.Str("queue", name), logpkg.Err(err))
	}
	return settings, err
}

// Size returns the number of queued jobs.
func (s *Service) Size(ctx context.Context, name string) (int, error) {
	conn, err := s.rt.Pool().Get(ctx)
	if err != nil {
		return 0, err
	}
	defer s.rt.Pool().Put(conn)
	size, err := conn.Store().Size(ctx, name)
	if err != nil && unexpected(err) {
		s.logger.Error("failed to fetch queue size", logpkg.Str("queue", name), logpkg.Err(err))
	}
	return size, err
}

// JobIDs returns the ids of queued jobs in retrieval order.
func (s *Service) JobIDs(ctx context.Context, name string) ([]uint64, error) {
	conn, err := s.rt.Pool().Get(ctx)
	if err != nil {
		return nil, err
	}
	defer s.rt.Pool().Put(conn)
	ids, err := conn.Store().JobIDs(ctx, name)
	if err != nil && unexpected(err) {
		s.logger.Error("failed to fetch queue job ids", logpkg.Str("queue", name), logpkg.Err(err))
	}
	return ids, err
}
