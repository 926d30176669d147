package queuestore

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/rzbill/jobq/internal/qerr"
	pebblestore "github.com/rzbill/jobq/internal/storage/pebble"
)

// Outcome reports whether an upsert created or replaced a queue.
type Outcome int

const (
	// OutcomeCreated means no queue existed under the name before.
	OutcomeCreated Outcome = iota
	// OutcomeUpdated means the queue existed and its settings were replaced.
	OutcomeUpdated
)

// String returns the outcome's name.
func (o Outcome) String() string {
	if o == OutcomeCreated {
		return "created"
	}
	return "updated"
}

// JobRequest is a client's job-creation payload. Input is carried verbatim;
// the remaining fields are execution hints passed through to workers.
type JobRequest struct {
	Input            json.RawMessage `json:"input,omitempty"`
	Tags             []string        `json:"tags,omitempty"`
	Timeout          string          `json:"timeout,omitempty"`
	HeartbeatTimeout string          `json:"heartbeat_timeout,omitempty"`
	ExpiresAfter     string          `json:"expires_after,omitempty"`
	Retries          *int            `json:"retries,omitempty"`
	RetryDelays      []string        `json:"retry_delays,omitempty"`
}

// Job is a committed job as handed to workers.
type Job struct {
	ID         uint64          `json:"id"`
	Queue      string          `json:"queue"`
	Input      json.RawMessage `json:"input,omitempty"`
	Tags       []string        `json:"tags,omitempty"`
	EnqueuedAt int64           `json:"enqueued_at_ms"`
}

// Store is the authoritative queue/job engine over Pebble. Queue mutation and
// job commits are atomic batches; the global job id counter is persisted and
// restored across restarts.
type Store struct {
	db *pebblestore.DB

	mu        sync.Mutex
	lastJobID uint64
}

// Open initializes a Store and restores the job id counter from metadata.
func Open(db *pebblestore.DB) (*Store, error) {
	s := &Store{db: db}
	if meta, err := db.Get([]byte(lastJobIDKey)); err == nil && len(meta) >= 8 {
		s.lastJobID = binary.BigEndian.Uint64(meta[:8])
	} else if err != nil && !errors.Is(err, pebblestore.ErrNotFound) {
		return nil, qerr.Internal(err)
	}
	return s, nil
}

// validateQueueName rejects names that would break the key schema.
func validateQueueName(name string) error {
	if name == "" || len(name) > 128 {
		return qerr.BadRequest("queue name must be 1-128 characters")
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_', c == '.':
		default:
			return qerr.BadRequest(fmt.Sprintf("queue name contains invalid character %q", c))
		}
	}
	return nil
}

func (s *Store) queueExists(name string) (bool, error) {
	ok, err := s.db.Has(queueMetaKey(name))
	if err != nil {
		return false, qerr.Internal(err)
	}
	return ok, nil
}

// ListQueueNames returns all queue names in lexical order. Only the settings
// prefix is scanned, so the cost is O(queues) regardless of queued jobs.
func (s *Store) ListQueueNames(_ context.Context) ([]string, error) {
	prefix := []byte(metaPrefix)
	it, err := s.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: keyUpperBound(prefix)})
	if err != nil {
		return nil, qerr.Internal(err)
	}
	defer func() { _ = it.Close() }()

	names := make([]string, 0)
	for ok := it.First(); ok; ok = it.Next() {
		names = append(names, string(it.Key()[len(prefix):]))
	}
	sort.Strings(names)
	return names, nil
}

// CreateOrUpdateQueue validates and stores queue settings, reporting whether
// the queue was created or replaced. Invalid settings never partially apply.
func (s *Store) CreateOrUpdateQueue(ctx context.Context, name string, rawSettings []byte) (Outcome, error) {
	if err := validateQueueName(name); err != nil {
		return 0, err
	}
	if len(bytes.TrimSpace(rawSettings)) == 0 {
		rawSettings = []byte("{}")
	}
	if _, err := parseSettings(rawSettings); err != nil {
		return 0, err
	}
	existed, err := s.queueExists(name)
	if err != nil {
		return 0, err
	}
	if err := s.db.Set(queueMetaKey(name), rawSettings); err != nil {
		return 0, qerr.Internal(err)
	}
	if existed {
		return OutcomeUpdated, nil
	}
	return OutcomeCreated, nil
}

// DeleteQueue removes a queue and all its queued jobs in one batch. Returns
// false when the queue does not exist. The store mutex is held across the
// commit so no job record lands after the range delete.
func (s *Store) DeleteQueue(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existed, err := s.queueExists(name)
	if err != nil {
		return false, err
	}
	if !existed {
		return false, nil
	}
	prefix := jobPrefix(name)
	b := s.db.NewBatch()
	defer b.Close()
	if err := b.Delete(queueMetaKey(name), nil); err != nil {
		return false, qerr.Internal(err)
	}
	if err := b.DeleteRange(prefix, keyUpperBound(prefix), nil); err != nil {
		return false, qerr.Internal(err)
	}
	if err := s.db.CommitBatch(ctx, b); err != nil {
		return false, qerr.Internal(err)
	}
	return true, nil
}

// Settings returns a queue's parsed settings.
func (s *Store) Settings(_ context.Context, name string) (Settings, error) {
	raw, err := s.db.Get(queueMetaKey(name))
	if err != nil {
		if errors.Is(err, pebblestore.ErrNotFound) {
			return Settings{}, qerr.NoSuchQueue(name)
		}
		return Settings{}, qerr.Internal(err)
	}
	return parseSettings(raw)
}

// Size returns the number of queued jobs.
func (s *Store) Size(ctx context.Context, name string) (int, error) {
	if ok, err := s.queueExists(name); err != nil {
		return 0, err
	} else if !ok {
		return 0, qerr.NoSuchQueue(name)
	}
	prefix := jobPrefix(name)
	it, err := s.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: keyUpperBound(prefix)})
	if err != nil {
		return 0, qerr.Internal(err)
	}
	defer func() { _ = it.Close() }()
	n := 0
	for ok := it.First(); ok; ok = it.Next() {
		n++
	}
	return n, nil
}

// JobIDs returns the ids of all queued jobs in retrieval order.
func (s *Store) JobIDs(ctx context.Context, name string) ([]uint64, error) {
	if ok, err := s.queueExists(name); err != nil {
		return nil, err
	} else if !ok {
		return nil, qerr.NoSuchQueue(name)
	}
	prefix := jobPrefix(name)
	it, err := s.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: keyUpperBound(prefix)})
	if err != nil {
		return nil, qerr.Internal(err)
	}
	defer func() { _ = it.Close() }()
	ids := make([]uint64, 0)
	for ok := it.First(); ok; ok = it.Next() {
		if id, ok2 := jobIDFromKey(it.Key()); ok2 {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// CreateJob commits a job to a queue and returns its id. The id counter
// update and the job record land in the same batch so an id is never burned
// without its record.
func (s *Store) CreateJob(ctx context.Context, name string, req *JobRequest) (uint64, error) {
	if req == nil {
		return 0, qerr.BadRequest("missing job request")
	}
	settings, err := s.Settings(ctx, name)
	if err != nil {
		return 0, err
	}
	filter, ferr := newInputFilter(settings.InputFilter)
	if ferr != nil {
		// settings were validated at upsert; a compile failure here is a store defect
		return 0, qerr.Internal(ferr)
	}
	if !filter.Eval(name, req.Input) {
		return 0, qerr.BadRequest(fmt.Sprintf("job input rejected by queue %q input filter", name))
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return 0, qerr.BadRequest(fmt.Sprintf("unencodable job request: %v", err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The settings read above ran outside the lock; the queue may have been
	// deleted since. Re-check so the commit cannot orphan a job record.
	if ok, err := s.queueExists(name); err != nil {
		return 0, err
	} else if !ok {
		return 0, qerr.NoSuchQueue(name)
	}

	id := s.lastJobID + 1
	nowMs := time.Now().UnixMilli()

	b := s.db.NewBatch()
	defer b.Close()
	if err := b.Set(jobKey(name, id), encodeJobRecord(id, nowMs, payload), nil); err != nil {
		return 0, qerr.Internal(err)
	}
	var counter [8]byte
	binary.BigEndian.PutUint64(counter[:], id)
	if err := b.Set([]byte(lastJobIDKey), counter[:], nil); err != nil {
		return 0, qerr.Internal(err)
	}
	if err := s.db.CommitBatch(ctx, b); err != nil {
		return 0, qerr.Internal(err)
	}
	s.lastJobID = id
	return id, nil
}

// NextQueuedJob atomically pops the next job in FIFO order, or returns nil
// when the queue is empty.
func (s *Store) NextQueuedJob(ctx context.Context, name string) (*Job, error) {
	if ok, err := s.queueExists(name); err != nil {
		return nil, err
	} else if !ok {
		return nil, qerr.NoSuchQueue(name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := jobPrefix(name)
	it, err := s.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: keyUpperBound(prefix)})
	if err != nil {
		return nil, qerr.Internal(err)
	}
	defer func() { _ = it.Close() }()

	if !it.First() {
		return nil, nil
	}
	key := append([]byte(nil), it.Key()...)
	val := append([]byte(nil), it.Value()...)
	job, err := s.decodeJob(name, val)
	if err != nil {
		return nil, err
	}
	if err := s.db.Delete(key); err != nil {
		return nil, qerr.Internal(err)
	}
	return job, nil
}

// FetchQueuedJob reads a specific queued job without consuming it, or returns
// nil when the id is not queued.
func (s *Store) FetchQueuedJob(ctx context.Context, name string, id uint64) (*Job, error) {
	if ok, err := s.queueExists(name); err != nil {
		return nil, err
	} else if !ok {
		return nil, qerr.NoSuchQueue(name)
	}
	val, err := s.db.Get(jobKey(name, id))
	if err != nil {
		if errors.Is(err, pebblestore.ErrNotFound) {
			return nil, nil
		}
		return nil, qerr.Internal(err)
	}
	return s.decodeJob(name, val)
}

func (s *Store) decodeJob(name string, val []byte) (*Job, error) {
	rec, ok := decodeJobRecord(val)
	if !ok {
		return nil, qerr.Internal(fmt.Errorf("corrupt job record in queue %q", name))
	}
	var req JobRequest
	if err := json.Unmarshal(rec.Payload, &req); err != nil {
		return nil, qerr.Internal(fmt.Errorf("undecodable job payload in queue %q: %w", name, err))
	}
	return &Job{
		ID:         rec.ID,
		Queue:      name,
		Input:      req.Input,
		Tags:       req.Tags,
		EnqueuedAt: rec.EnqueuedMs,
	}, nil
}
