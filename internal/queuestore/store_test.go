package queuestore

import (
	"context"
	"testing"

	"github.com/rzbill/jobq/internal/qerr"
	pebblestore "github.com/rzbill/jobq/internal/storage/pebble"
)

func openTestStore(t *testing.T) (*Store, *pebblestore.DB) {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways})
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	s, err := Open(db)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return s, db
}

func TestCreateOrUpdateOutcomes(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	out, err := s.CreateOrUpdateQueue(ctx, "jobs", []byte(`{"timeout":"30s"}`))
	if err != nil || out != OutcomeCreated {
		t.Fatalf("create: %v %v", out, err)
	}
	out, err = s.CreateOrUpdateQueue(ctx, "jobs", []byte(`{"timeout":"1m"}`))
	if err != nil || out != OutcomeUpdated {
		t.Fatalf("update: %v %v", out, err)
	}
	settings, err := s.Settings(ctx, "jobs")
	if err != nil || settings.Timeout != "1m" {
		t.Fatalf("settings after update: %+v %v", settings, err)
	}
}

func TestBadSettingsDoNotApply(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	if _, err := s.CreateOrUpdateQueue(ctx, "jobs", []byte(`{"timeout":"5m"}`)); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := s.CreateOrUpdateQueue(ctx, "jobs", []byte(`{"timeout":"not-a-duration"}`))
	if !qerr.IsKind(err, qerr.KindBadRequest) {
		t.Fatalf("want bad request, got %v", err)
	}
	settings, err := s.Settings(ctx, "jobs")
	if err != nil || settings.Timeout != "5m" {
		t.Fatalf("settings should be untouched: %+v %v", settings, err)
	}
	// malformed JSON rejected too
	if _, err := s.CreateOrUpdateQueue(ctx, "jobs", []byte(`{"timeout"`)); !qerr.IsKind(err, qerr.KindBadRequest) {
		t.Fatalf("malformed json: %v", err)
	}
}

func TestQueueNameValidation(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	if _, err := s.CreateOrUpdateQueue(ctx, "bad/name", nil); !qerr.IsKind(err, qerr.KindBadRequest) {
		t.Fatalf("slash in name: %v", err)
	}
	if _, err := s.CreateOrUpdateQueue(ctx, "", nil); !qerr.IsKind(err, qerr.KindBadRequest) {
		t.Fatalf("empty name: %v", err)
	}
}

func TestMissingQueueKinds(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	if _, err := s.Size(ctx, "missing"); !qerr.IsKind(err, qerr.KindNoSuchQueue) {
		t.Fatalf("size: %v", err)
	}
	if _, err := s.JobIDs(ctx, "missing"); !qerr.IsKind(err, qerr.KindNoSuchQueue) {
		t.Fatalf("job ids: %v", err)
	}
	if _, err := s.Settings(ctx, "missing"); !qerr.IsKind(err, qerr.KindNoSuchQueue) {
		t.Fatalf("settings: %v", err)
	}
	if _, err := s.CreateJob(ctx, "missing", &JobRequest{}); !qerr.IsKind(err, qerr.KindNoSuchQueue) {
		t.Fatalf("create job: %v", err)
	}
}

func TestCreateAndPopFIFO(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	if _, err := s.CreateOrUpdateQueue(ctx, "jobs", nil); err != nil {
		t.Fatalf("create queue: %v", err)
	}
	id1, err := s.CreateJob(ctx, "jobs", &JobRequest{Input: []byte(`{"x":1}`)})
	if err != nil || id1 == 0 {
		t.Fatalf("create 1: %v %v", id1, err)
	}
	id2, err := s.CreateJob(ctx, "jobs", &JobRequest{Input: []byte(`{"x":2}`)})
	if err != nil || id2 != id1+1 {
		t.Fatalf("create 2: %v %v", id2, err)
	}

	if n, err := s.Size(ctx, "jobs"); err != nil || n != 2 {
		t.Fatalf("size: %d %v", n, err)
	}
	ids, err := s.JobIDs(ctx, "jobs")
	if err != nil || len(ids) != 2 || ids[0] != id1 || ids[1] != id2 {
		t.Fatalf("job ids: %v %v", ids, err)
	}

	job, err := s.NextQueuedJob(ctx, "jobs")
	if err != nil || job == nil || job.ID != id1 || string(job.Input) != `{"x":1}` {
		t.Fatalf("pop 1: %+v %v", job, err)
	}
	job, err = s.NextQueuedJob(ctx, "jobs")
	if err != nil || job == nil || job.ID != id2 {
		t.Fatalf("pop 2: %+v %v", job, err)
	}
	job, err = s.NextQueuedJob(ctx, "jobs")
	if err != nil || job != nil {
		t.Fatalf("pop empty: %+v %v", job, err)
	}
}

func TestFetchDoesNotConsume(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	_, _ = s.CreateOrUpdateQueue(ctx, "jobs", nil)
	id, err := s.CreateJob(ctx, "jobs", &JobRequest{Input: []byte(`[1,2,3]`)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	job, err := s.FetchQueuedJob(ctx, "jobs", id)
	if err != nil || job == nil || string(job.Input) != `[1,2,3]` {
		t.Fatalf("fetch: %+v %v", job, err)
	}
	if n, _ := s.Size(ctx, "jobs"); n != 1 {
		t.Fatalf("fetch consumed the job")
	}
	if job, err := s.FetchQueuedJob(ctx, "jobs", id+100); err != nil || job != nil {
		t.Fatalf("fetch unknown id: %+v %v", job, err)
	}
}

func TestJobIDCounterSurvivesReopen(t *testing.T) {
	s, db := openTestStore(t)
	ctx := context.Background()
	_, _ = s.CreateOrUpdateQueue(ctx, "jobs", nil)
	id1, err := s.CreateJob(ctx, "jobs", &JobRequest{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	s2, err := Open(db)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	id2, err := s2.CreateJob(ctx, "jobs", &JobRequest{})
	if err != nil || id2 != id1+1 {
		t.Fatalf("counter lost across reopen: %d then %d (%v)", id1, id2, err)
	}
}

func TestDeleteQueueRemovesJobs(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	_, _ = s.CreateOrUpdateQueue(ctx, "jobs", nil)
	_, _ = s.CreateJob(ctx, "jobs", &JobRequest{})
	deleted, err := s.DeleteQueue(ctx, "jobs")
	if err != nil || !deleted {
		t.Fatalf("delete: %v %v", deleted, err)
	}
	if deleted, err := s.DeleteQueue(ctx, "jobs"); err != nil || deleted {
		t.Fatalf("second delete should report not found: %v %v", deleted, err)
	}
	if _, err := s.Size(ctx, "jobs"); !qerr.IsKind(err, qerr.KindNoSuchQueue) {
		t.Fatalf("queue should be gone: %v", err)
	}
}

func TestDeleteDuringCreateLeavesNoStaleJobs(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	for i := 0; i < 25; i++ {
		if _, err := s.CreateOrUpdateQueue(ctx, "jobs", nil); err != nil {
			t.Fatalf("create queue: %v", err)
		}
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, err := s.CreateJob(ctx, "jobs", &JobRequest{}); err != nil {
					return
				}
			}
		}()
		if _, err := s.DeleteQueue(ctx, "jobs"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		<-done
		if _, err := s.CreateOrUpdateQueue(ctx, "jobs", nil); err != nil {
			t.Fatalf("recreate: %v", err)
		}
		if n, err := s.Size(ctx, "jobs"); err != nil || n != 0 {
			t.Fatalf("iteration %d: recreated queue resurrected %d jobs (%v)", i, n, err)
		}
		if _, err := s.DeleteQueue(ctx, "jobs"); err != nil {
			t.Fatalf("cleanup delete: %v", err)
		}
	}
}

func TestListQueueNamesIgnoresJobRecords(t *testing.T) {
	s, db := openTestStore(t)
	ctx := context.Background()
	if _, err := s.CreateOrUpdateQueue(ctx, "jobs", nil); err != nil {
		t.Fatalf("create queue: %v", err)
	}
	// job record key whose BE8 id bytes happen to spell "/meta"
	key := append([]byte("q/jobs/job/"), 0x00, 0x00, 0x00, '/', 'm', 'e', 't', 'a')
	if err := db.Set(key, []byte("x")); err != nil {
		t.Fatalf("set: %v", err)
	}
	names, err := s.ListQueueNames(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 1 || names[0] != "jobs" {
		t.Fatalf("job keys leaked into queue listing: %v", names)
	}
}

func TestInputFilter(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	if _, err := s.CreateOrUpdateQueue(ctx, "jobs", []byte(`{"input_filter":"input.priority <= 10"}`)); err != nil {
		t.Fatalf("create with filter: %v", err)
	}
	if _, err := s.CreateJob(ctx, "jobs", &JobRequest{Input: []byte(`{"priority":3}`)}); err != nil {
		t.Fatalf("accepted input rejected: %v", err)
	}
	_, err := s.CreateJob(ctx, "jobs", &JobRequest{Input: []byte(`{"priority":99}`)})
	if !qerr.IsKind(err, qerr.KindBadRequest) {
		t.Fatalf("want bad request from filter, got %v", err)
	}
	// non-compiling filter is rejected at upsert
	if _, err := s.CreateOrUpdateQueue(ctx, "jobs", []byte(`{"input_filter":"input..x"}`)); !qerr.IsKind(err, qerr.KindBadRequest) {
		t.Fatalf("bad filter expr: %v", err)
	}
}
