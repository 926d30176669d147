package jobsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/rzbill/jobq/internal/qerr"
	"github.com/rzbill/jobq/internal/queuestore"
	"github.com/rzbill/jobq/internal/runtime"
	logpkg "github.com/rzbill/jobq/pkg/log"
)

// Service coordinates job submission and retrieval. Submission is two-phase:
// the request is staged to disk first, committed to the queue store second,
// and the staged record is deleted only after the commit succeeds. A failed
// cleanup leaves an orphan for the janitor and is never surfaced to callers.
type Service struct {
	rt     *runtime.Runtime
	logger logpkg.Logger
	delay  time.Duration
}

// New creates a jobs service with a default logger.
func New(rt *runtime.Runtime) *Service {
	return NewWithLogger(rt, logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel)).With(logpkg.Component("jobs")))
}

// NewWithLogger creates a jobs service with a custom logger.
func NewWithLogger(rt *runtime.Runtime, logger logpkg.Logger) *Service {
	if logger == nil {
		logger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel)).With(logpkg.Component("jobs"))
	}
	return &Service{
		rt:     rt,
		logger: logger,
		delay:  rt.Config().Server.NextJobDelay.Std(),
	}
}

// Submit stages a job-creation request and commits it to the queue. The
// staging write must succeed before the queue store is touched; if the commit
// fails the staged record is left in place for later reattempt.
func (s *Service) Submit(ctx context.Context, queue string, req *queuestore.JobRequest) (uint64, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return 0, qerr.BadRequest("invalid job request: " + err.Error())
	}
	_, stagingID, err := s.rt.Staging().WriteJob(queue, payload)
	if err != nil {
		s.logger.Error("failed to stage job", logpkg.Str("queue", queue), logpkg.Err(err))
		return 0, err
	}
	id, err := s.commit(ctx, queue, stagingID, req)
	if err != nil {
		s.logger.Warn("job commit failed; staged record retained",
			logpkg.Str("queue", queue), logpkg.Int64("staging_id", stagingID), logpkg.Err(err))
		return 0, err
	}
	return id, nil
}

// Reattempt replays a previously staged request whose commit failed. When the
// staged input is a JSON object, an attempted_on field carrying the staging id
// is injected so workers can tell a replay from a first attempt; arrays and
// scalars are passed through unmodified.
func (s *Service) Reattempt(ctx context.Context, queue string, stagingID int64) (uint64, error) {
	payload, err := s.rt.Staging().GetJob(queue, stagingID)
	if err != nil {
		return 0, err
	}
	var req queuestore.JobRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return 0, qerr.Staging(queue, err)
	}
	req.Input = markAttempted(req.Input, stagingID)
	return s.commit(ctx, queue, stagingID, &req)
}

// markAttempted injects attempted_on into an object input. Non-object inputs
// have no natural slot for the marker and are returned as-is.
func markAttempted(input json.RawMessage, stagingID int64) json.RawMessage {
	trimmed := bytes.TrimSpace(input)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return input
	}
	var obj map[string]any
	if err := json.Unmarshal(trimmed, &obj); err != nil || obj == nil {
		return input
	}
	obj["attempted_on"] = stagingID
	out, err := json.Marshal(obj)
	if err != nil {
		return input
	}
	return out
}

// commit writes the job to the queue store and then removes the staged
// record. Cleanup failure is logged and swallowed: the job is already
// committed and the leftover file is the janitor's problem.
func (s *Service) commit(ctx context.Context, queue string, stagingID int64, req *queuestore.JobRequest) (uint64, error) {
	conn, err := s.rt.Pool().Get(ctx)
	if err != nil {
		return 0, err
	}
	defer s.rt.Pool().Put(conn)
	id, err := conn.Store().CreateJob(ctx, queue, req)
	if err != nil {
		return 0, err
	}
	if derr := s.rt.Staging().DeleteJob(queue, stagingID); derr != nil {
		s.logger.Warn("failed to delete staged record after commit",
			logpkg.Str("queue", queue), logpkg.Int64("staging_id", stagingID), logpkg.Err(derr))
	}
	s.logger.Info("job committed",
		logpkg.Str("queue", queue), logpkg.Uint64("job_id", id))
	return id, nil
}

// NextJob pops the oldest queued job. When the queue is empty and a next-job
// delay is configured, the response is held for the delay so idle workers
// poll gently; the pool connection is released before waiting.
func (s *Service) NextJob(ctx context.Context, queue string) (*queuestore.Job, error) {
	conn, err := s.rt.Pool().Get(ctx)
	if err != nil {
		return nil, err
	}
	job, err := conn.Store().NextQueuedJob(ctx, queue)
	s.rt.Pool().Put(conn)
	if err != nil {
		return nil, err
	}
	if job != nil {
		return job, nil
	}
	return nil, s.emptyDelay(ctx)
}

// FetchJob reads a queued job by id without consuming it. An absent id gets
// the same empty-response delay as NextJob.
func (s *Service) FetchJob(ctx context.Context, queue string, id uint64) (*queuestore.Job, error) {
	conn, err := s.rt.Pool().Get(ctx)
	if err != nil {
		return nil, err
	}
	job, err := conn.Store().FetchQueuedJob(ctx, queue, id)
	s.rt.Pool().Put(conn)
	if err != nil {
		return nil, err
	}
	if job != nil {
		return job, nil
	}
	return nil, s.emptyDelay(ctx)
}

// emptyDelay holds an empty response for the configured next-job delay.
// No storage connection or lock is held while waiting.
func (s *Service) emptyDelay(ctx context.Context) error {
	if s.delay <= 0 {
		return nil
	}
	t := time.NewTimer(s.delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
