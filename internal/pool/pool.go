package pool

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rzbill/jobq/internal/qerr"
	"github.com/rzbill/jobq/internal/queuestore"
)

// Pool hands out queue store connections one operation at a time. The store
// is an embedded engine, so a connection is a capacity token plus the shared
// handle; the pool bounds concurrent store work and gives callers a single
// place that can fail with a connection-kind error.
type Pool struct {
	tokens chan struct{}
	store  *queuestore.Store

	acquireTimeout time.Duration

	mu     sync.Mutex
	closed bool
}

// Conn is a checked-out handle. It must be returned with Put after a single
// operation; connections are never held across a retrieval delay.
type Conn struct {
	store *queuestore.Store
}

// Store exposes the queue store behind this connection.
func (c *Conn) Store() *queuestore.Store { return c.store }

// Options configures a Pool.
type Options struct {
	// Size is the number of concurrently checked-out connections. Defaults to 16.
	Size int
	// AcquireTimeout bounds how long Get waits for a free connection.
	// Zero waits until ctx is done.
	AcquireTimeout time.Duration
}

// New builds a pool over an open queue store.
func New(store *queuestore.Store, opts Options) *Pool {
	size := opts.Size
	if size <= 0 {
		size = 16
	}
	p := &Pool{
		tokens:         make(chan struct{}, size),
		store:          store,
		acquireTimeout: opts.AcquireTimeout,
	}
	for i := 0; i < size; i++ {
		p.tokens <- struct{}{}
	}
	return p
}

// Get checks out a connection, suspending until one is free, the context is
// done, or the acquire timeout elapses. All failures carry the connection
// error kind.
func (p *Pool) Get(ctx context.Context) (*Conn, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, qerr.Connection(errors.New("pool is closed"))
	}
	p.mu.Unlock()

	if p.acquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.acquireTimeout)
		defer cancel()
	}

	select {
	case _, ok := <-p.tokens:
		if !ok {
			return nil, qerr.Connection(errors.New("pool is closed"))
		}
		return &Conn{store: p.store}, nil
	case <-ctx.Done():
		return nil, qerr.Connection(ctx.Err())
	}
}

// Put returns a connection to the pool.
func (p *Pool) Put(c *Conn) {
	if c == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	select {
	case p.tokens <- struct{}{}:
	default:
	}
}

// Close marks the pool unusable. Subsequent Gets fail with a connection error.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.tokens)
}
