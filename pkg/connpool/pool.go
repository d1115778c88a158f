// Package connpool provides a FIFO admission gate in front of the store.
//
// database/sql already caps open connections, but its waiters are not served
// in arrival order and it has no notion of a queue limit. A Pool sized to
// DB_MAX_OPEN_CONNS sits in front of every store call so that:
//
//   - at most Size callers hold a connection at once;
//   - excess callers wait in strict FIFO order;
//   - when QueueLimit > 0 and that many callers are already waiting,
//     Acquire fails fast with ErrQueueFull.
//
// Basic usage:
//
//	pool := connpool.New(10, 0)
//	defer pool.Close()
//
//	release, err := pool.Acquire(ctx)
//	if err != nil {
//	    return err
//	}
//	defer release()
package connpool

import (
	"container/list"
	"context"
	"errors"
	"sync"
	"time"
)

// ErrQueueFull is returned by Acquire when the wait queue is at its limit.
var ErrQueueFull = errors.New("connpool: queue limit reached")

// ErrPoolClosed is returned by Acquire after Close has been called.
var ErrPoolClosed = errors.New("connpool: pool is closed")

// Observer receives pool events. metrics.PoolObserver satisfies it.
type Observer interface {
	ObserveWait(d time.Duration)
	SetInUse(n int)
	SetWaiting(n int)
}

type nopObserver struct{}

func (nopObserver) ObserveWait(time.Duration) {}
func (nopObserver) SetInUse(int)              {}
func (nopObserver) SetWaiting(int)            {}

// Stats is a point-in-time view of the pool.
type Stats struct {
	Size    int
	InUse   int
	Waiting int
}

// Pool is a bounded, FIFO-fair slot pool.
type Pool struct {
	mu         sync.Mutex
	size       int
	queueLimit int
	inUse      int
	waiters    list.List // of chan struct{}
	closed     bool
	obs        Observer
}

// New creates a Pool with size slots. queueLimit <= 0 means the wait queue
// is unbounded.
func New(size, queueLimit int) *Pool {
	if size <= 0 {
		size = 1
	}
	if queueLimit < 0 {
		queueLimit = 0
	}
	return &Pool{size: size, queueLimit: queueLimit, obs: nopObserver{}}
}

// WithObserver attaches an Observer and returns the pool.
func (p *Pool) WithObserver(o Observer) *Pool {
	if o == nil {
		o = nopObserver{}
	}
	p.mu.Lock()
	p.obs = o
	p.mu.Unlock()
	return p
}

// Acquire blocks until a slot is free, ctx is done, or the pool is closed.
// The returned release func must be called exactly once.
func (p *Pool) Acquire(ctx context.Context) (release func(), err error) {
	start := time.Now()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}

	// Fast path: a free slot and nobody ahead of us.
	if p.inUse < p.size && p.waiters.Len() == 0 {
		p.inUse++
		p.obs.SetInUse(p.inUse)
		p.mu.Unlock()
		p.obs.ObserveWait(0)
		return p.releaser(), nil
	}

	if p.queueLimit > 0 && p.waiters.Len() >= p.queueLimit {
		p.mu.Unlock()
		return nil, ErrQueueFull
	}

	ready := make(chan struct{})
	elem := p.waiters.PushBack(ready)
	p.obs.SetWaiting(p.waiters.Len())
	p.mu.Unlock()

	select {
	case <-ready:
		p.obs.ObserveWait(time.Since(start))
		return p.releaser(), nil
	case <-ctx.Done():
		p.mu.Lock()
		select {
		case <-ready:
			// Granted while we were giving up: hand the slot on.
			p.mu.Unlock()
			p.release()
		default:
			p.waiters.Remove(elem)
			p.obs.SetWaiting(p.waiters.Len())
			p.mu.Unlock()
		}
		return nil, ctx.Err()
	}
}

// Do runs fn while holding a slot.
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	release, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx)
}

// Stats returns the current pool occupancy.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{Size: p.size, InUse: p.inUse, Waiting: p.waiters.Len()}
}

// Close stops admitting new callers. Callers already queued are still
// served as slots are released. Safe to call multiple times.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

func (p *Pool) releaser() func() {
	var once sync.Once
	return func() { once.Do(p.release) }
}

// release hands the slot to the oldest waiter, or frees it.
func (p *Pool) release() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if front := p.waiters.Front(); front != nil {
		p.waiters.Remove(front)
		p.obs.SetWaiting(p.waiters.Len())
		close(front.Value.(chan struct{}))
		return
	}
	p.inUse--
	p.obs.SetInUse(p.inUse)
}
