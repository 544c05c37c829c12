// Package gate provides the counting semaphore that bounds how many tasks an
// orchestration run executes at once.
//
// Waiters are served in FIFO order: a released permit goes to the caller that
// has been waiting longest. The gate has no watchdog; a task that never
// finishes keeps its permit.
package gate

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// DefaultCapacity is used when a gate is created with a non-positive capacity.
const DefaultCapacity = 3

// Gate is a fixed-capacity permit pool.
type Gate struct {
	sem      *semaphore.Weighted
	capacity int64
	inUse    atomic.Int64
	waiting  atomic.Int64
}

// New creates a gate with the given capacity.
func New(capacity int) *Gate {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Gate{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: int64(capacity),
	}
}

// Acquire takes a permit, suspending until one is available. It returns
// without suspending when a permit is free and nobody is queued ahead.
// The only error is ctx's, in which case no permit is held.
func (g *Gate) Acquire(ctx context.Context) error {
	if g.sem.TryAcquire(1) {
		g.inUse.Add(1)
		return nil
	}

	g.waiting.Add(1)
	err := g.sem.Acquire(ctx, 1)
	g.waiting.Add(-1)
	if err != nil {
		return err
	}
	g.inUse.Add(1)
	return nil
}

// TryAcquire takes a permit only if one is immediately available.
func (g *Gate) TryAcquire() bool {
	if !g.sem.TryAcquire(1) {
		return false
	}
	g.inUse.Add(1)
	return true
}

// Release returns a permit. The oldest waiter, if any, receives it directly.
// Releasing more permits than were acquired panics.
func (g *Gate) Release() {
	g.inUse.Add(-1)
	g.sem.Release(1)
}

// Capacity returns the configured number of permits.
func (g *Gate) Capacity() int {
	return int(g.capacity)
}

// InUse returns the number of outstanding acquisitions.
func (g *Gate) InUse() int {
	return int(g.inUse.Load())
}

// Available returns the number of free permits.
func (g *Gate) Available() int {
	return int(g.capacity - g.inUse.Load())
}

// Waiting returns the number of callers suspended in Acquire.
func (g *Gate) Waiting() int {
	return int(g.waiting.Load())
}
