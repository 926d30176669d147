package staging

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rzbill/jobq/internal/qerr"
)

// Store persists job-creation requests to disk before they are committed to
// the queue store. Records are addressed by a per-queue staging id: a Unix
// millisecond timestamp forced strictly increasing under the store mutex.
//
// Layout: {dir}/{queue}/{staging_id}.json
type Store struct {
	dir string

	mu     sync.Mutex
	lastID map[string]int64
}

// Record describes one staged entry found on disk.
type Record struct {
	Queue     string
	StagingID int64
	Path      string
}

// Open creates the staging root directory if needed.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("staging: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir, lastID: make(map[string]int64)}, nil
}

// Dir returns the staging root directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) recordPath(queue string, stagingID int64) string {
	return filepath.Join(s.dir, queue, strconv.FormatInt(stagingID, 10)+".json")
}

// nextID allocates a strictly increasing staging id for the queue. A clock
// regression pins to last+1 so ids stay monotonic within a process.
func (s *Store) nextID(queue string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := time.Now().UnixMilli()
	if last := s.lastID[queue]; id <= last {
		id = last + 1
	}
	s.lastID[queue] = id
	return id
}

// WriteJob persists a job-creation payload for the queue and returns the
// record's location and staging id. This is the write-ahead step: it must
// succeed before any queue store call is attempted.
func (s *Store) WriteJob(queue string, payload []byte) (string, int64, error) {
	qdir := filepath.Join(s.dir, queue)
	if err := os.MkdirAll(qdir, 0o755); err != nil {
		return "", 0, qerr.Staging(queue, err)
	}
	for {
		id := s.nextID(queue)
		path := s.recordPath(queue, id)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			if errors.Is(err, fs.ErrExist) {
				// id collision with a record from a previous process; take the next id
				continue
			}
			return "", 0, qerr.Staging(queue, err)
		}
		if _, err := f.Write(payload); err != nil {
			_ = f.Close()
			_ = os.Remove(path)
			return "", 0, qerr.Staging(queue, err)
		}
		if err := f.Sync(); err != nil {
			_ = f.Close()
			_ = os.Remove(path)
			return "", 0, qerr.Staging(queue, err)
		}
		if err := f.Close(); err != nil {
			return "", 0, qerr.Staging(queue, err)
		}
		return path, id, nil
	}
}

// GetJob reads a staged payload. A missing record reports NotFound; any other
// failure is a staging error.
func (s *Store) GetJob(queue string, stagingID int64) ([]byte, error) {
	b, err := os.ReadFile(s.recordPath(queue, stagingID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, qerr.NotFound(fmt.Sprintf("no staged job %d in queue %q", stagingID, queue))
		}
		return nil, qerr.Staging(queue, err)
	}
	return b, nil
}

// DeleteJob removes a staged record. Callers treat failures as non-fatal and
// only log them; an orphaned record is a tolerated leak.
func (s *Store) DeleteJob(queue string, stagingID int64) error {
	if err := os.Remove(s.recordPath(queue, stagingID)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return qerr.Staging(queue, err)
	}
	return nil
}

// Scan walks the staging area and returns every record present.
func (s *Store) Scan() ([]Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, qerr.Staging("", err)
	}
	var records []Record
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		queue := e.Name()
		files, err := os.ReadDir(filepath.Join(s.dir, queue))
		if err != nil {
			return nil, qerr.Staging(queue, err)
		}
		for _, f := range files {
			name := f.Name()
			if f.IsDir() || !strings.HasSuffix(name, ".json") {
				continue
			}
			id, err := strconv.ParseInt(strings.TrimSuffix(name, ".json"), 10, 64)
			if err != nil {
				continue
			}
			records = append(records, Record{
				Queue:     queue,
				StagingID: id,
				Path:      filepath.Join(s.dir, queue, name),
			})
		}
	}
	return records, nil
}
