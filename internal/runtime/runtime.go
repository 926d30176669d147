package runtime

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/gofrs/flock"
	cfgpkg "github.com/rzbill/jobq/internal/config"
	"github.com/rzbill/jobq/internal/pool"
	"github.com/rzbill/jobq/internal/queuestore"
	"github.com/rzbill/jobq/internal/staging"
	pebblestore "github.com/rzbill/jobq/internal/storage/pebble"
)

// Options for building the Runtime.
type Options struct {
	DataDir string
	Config  cfgpkg.Config
}

// Runtime wires storage, staging, the connection pool, and config for a
// single-node broker instance. The data directory is flock-guarded so two
// brokers never share one store.
type Runtime struct {
	db      *pebblestore.DB
	store   *queuestore.Store
	staged  *staging.Store
	pool    *pool.Pool
	lock    *flock.Flock
	config  cfgpkg.Config
	dataDir string
}

// ParseFsyncMode converts a config fsync string to a storage mode.
func ParseFsyncMode(s string) (pebblestore.FsyncMode, error) {
	switch s {
	case "", "always":
		return pebblestore.FsyncModeAlways, nil
	case "interval":
		return pebblestore.FsyncModeInterval, nil
	case "never":
		return pebblestore.FsyncModeNever, nil
	default:
		return 0, fmt.Errorf("invalid fsync mode %q; use always|interval|never", s)
	}
}

// Open initializes the underlying storage and returns a Runtime.
func Open(opts Options) (*Runtime, error) {
	dataDir := cfgpkg.ResolveDataDir(opts.DataDir, opts.Config)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}

	lock := flock.New(cfgpkg.LockFile(dataDir))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, fmt.Errorf("data directory %q is locked by another jobq instance", dataDir)
	}

	fsync, err := ParseFsyncMode(opts.Config.Storage.Fsync)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	db, err := pebblestore.Open(pebblestore.Options{
		DataDir:       cfgpkg.StoreDir(dataDir),
		Fsync:         fsync,
		FsyncInterval: opts.Config.Storage.FsyncInterval.Std(),
	})
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	store, err := queuestore.Open(db)
	if err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}

	staged, err := staging.Open(cfgpkg.ResolveStagingDir(opts.Config, dataDir))
	if err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}

	p := pool.New(store, pool.Options{
		Size:           opts.Config.Pool.Size,
		AcquireTimeout: opts.Config.Pool.AcquireTimeout.Std(),
	})

	return &Runtime{
		db:      db,
		store:   store,
		staged:  staged,
		pool:    p,
		lock:    lock,
		config:  opts.Config,
		dataDir: dataDir,
	}, nil
}

// Close closes underlying resources and releases the data-dir lock.
func (r *Runtime) Close() error {
	if r.pool != nil {
		r.pool.Close()
	}
	var err error
	if r.db != nil {
		err = r.db.Close()
	}
	if r.lock != nil {
		_ = r.lock.Unlock()
	}
	return err
}

// CheckHealth performs a simple storage liveness check.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil {
		return errors.New("db not open")
	}
	it, err := r.db.NewIter(nil)
	if err != nil {
		return err
	}
	return it.Close()
}

// Pool returns the connection pool.
func (r *Runtime) Pool() *pool.Pool { return r.pool }

// Staging returns the job staging store.
func (r *Runtime) Staging() *staging.Store { return r.staged }

// Store exposes the queue store for tests and internal wiring; request paths
// go through the pool.
func (r *Runtime) Store() *queuestore.Store { return r.store }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

// DataDir returns the resolved data directory.
func (r *Runtime) DataDir() string { return r.dataDir }
