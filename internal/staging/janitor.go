package staging

import (
	"time"

	"github.com/robfig/cron/v3"
	logpkg "github.com/rzbill/jobq/pkg/log"
)

// Janitor periodically reports staged records that were never cleaned up.
// Records older than the configured retention are deleted; with retention
// zero the janitor only logs, since an orphan may still be reattempted.
type Janitor struct {
	store  *Store
	logger logpkg.Logger
	retain time.Duration
	cron   *cron.Cron
	nowMs  func() int64
}

// NewJanitor builds a janitor on the given cron schedule (standard five-field
// spec). retain <= 0 disables deletion.
func NewJanitor(store *Store, logger logpkg.Logger, schedule string, retain time.Duration) (*Janitor, error) {
	j := &Janitor{
		store:  store,
		logger: logger,
		retain: retain,
		cron:   cron.New(),
		nowMs:  func() int64 { return time.Now().UnixMilli() },
	}
	if _, err := j.cron.AddFunc(schedule, j.Sweep); err != nil {
		return nil, err
	}
	return j, nil
}

// Start begins scheduled sweeps.
func (j *Janitor) Start() { j.cron.Start() }

// Stop halts scheduling and waits for a running sweep to finish.
func (j *Janitor) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
}

// Sweep scans the staging area once, logging every orphan and deleting those
// past retention.
func (j *Janitor) Sweep() {
	records, err := j.store.Scan()
	if err != nil {
		j.logger.Error("staging sweep failed", logpkg.Err(err))
		return
	}
	now := j.nowMs()
	for _, rec := range records {
		age := time.Duration(now-rec.StagingID) * time.Millisecond
		if j.retain > 0 && age >= j.retain {
			if err := j.store.DeleteJob(rec.Queue, rec.StagingID); err != nil {
				j.logger.Warn("failed to expire staged record",
					logpkg.Str("queue", rec.Queue),
					logpkg.Int64("staging_id", rec.StagingID),
					logpkg.Err(err))
				continue
			}
			j.logger.Info("expired staged record",
				logpkg.Str("queue", rec.Queue),
				logpkg.Int64("staging_id", rec.StagingID),
				logpkg.Dur("age", age))
			continue
		}
		j.logger.Warn("orphaned staged record",
			logpkg.Str("queue", rec.Queue),
			logpkg.Int64("staging_id", rec.StagingID),
			logpkg.Dur("age", age))
	}
}
