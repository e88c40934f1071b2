package sandbox

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrPoolClosed means the pool was shut down
	ErrPoolClosed = errors.New("runtime pool is closed")
	// ErrAcquireTimeout means no runtime became available in time
	ErrAcquireTimeout = errors.New("runtime acquisition timeout")
)

const acquireTimeout = 5 * time.Second

// Pool manages reusable sandbox runtimes. Release discards all user
// state, so a runtime handed out never carries another submission's
// globals.
type Pool struct {
	runtimes chan *Runtime
	size     int
	mu       sync.RWMutex
	closed   bool
}

// NewPool creates a pool of pre-warmed runtimes
func NewPool(size int) *Pool {
	if size <= 0 {
		size = 4
	}

	p := &Pool{
		runtimes: make(chan *Runtime, size),
		size:     size,
	}
	for i := 0; i < size; i++ {
		p.runtimes <- newRuntime()
	}
	return p
}

// Acquire gets a runtime, waiting up to the acquisition timeout
func (p *Pool) Acquire(ctx context.Context) (*Runtime, error) {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return nil, ErrPoolClosed
	}

	select {
	case rt := <-p.runtimes:
		return rt, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(acquireTimeout):
		return nil, ErrAcquireTimeout
	}
}

// Release resets a runtime and returns it to the pool
func (p *Pool) Release(rt *Runtime) {
	rt.reset()

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}

	select {
	case p.runtimes <- rt:
	default:
		// Pool already full; drop the runtime
	}
}

// Discard replaces an abandoned runtime with a fresh one. Used when a
// worker execution is terminated and its runtime may still be running.
func (p *Pool) Discard() {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}

	select {
	case p.runtimes <- newRuntime():
	default:
	}
}

// Stats reports pool occupancy
func (p *Pool) Stats() (size, available int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.size, len(p.runtimes)
}

// Close shuts the pool down
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.runtimes)
	for range p.runtimes {
	}
}
