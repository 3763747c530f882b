// Package reactive provides observable value cells and a coalescing redraw
// scheduler.
//
// A Cell holds a value that is read synchronously and replaced with Set.
// Every write notifies the cell's subscribers and asks the Scheduler for a
// redraw. The Redrawer scheduler coalesces any number of requests made
// before its loop runs into a single redraw, so a mutation that touches
// several cells produces one redraw rather than one per write.
package reactive

import (
	"sync"
)

// Scheduler receives redraw requests from cells.
type Scheduler interface {
	Schedule()
}

// Cell is a mutable holder of a value of type T.
//
// Reads always reflect the latest write. Cells are safe for concurrent use;
// subscribers run on the writer's goroutine after the cell lock is released.
// A writer must not hold any lock of its own while calling Set, since
// subscribers may call back into it.
type Cell[T any] struct {
	mu    sync.RWMutex
	value T
	sched Scheduler

	subMu  sync.Mutex
	subs   map[uint64]func(T)
	nextID uint64
}

// NewCell returns a cell holding initial. A nil scheduler disables redraw
// requests, which is convenient for cells that are never rendered.
func NewCell[T any](sched Scheduler, initial T) *Cell[T] {
	return &Cell[T]{value: initial, sched: sched}
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Set replaces the value and unconditionally schedules a redraw, even if
// the new value equals the old one.
func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	c.value = v
	c.mu.Unlock()

	c.notify(v)
}

// Update applies fn to the current value under the cell lock and stores the
// result.
func (c *Cell[T]) Update(fn func(T) T) T {
	c.mu.Lock()
	v := fn(c.value)
	c.value = v
	c.mu.Unlock()

	c.notify(v)
	return v
}

// Subscribe registers fn to be called with the new value after every write.
// The returned function removes the subscription.
func (c *Cell[T]) Subscribe(fn func(T)) (cancel func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	if c.subs == nil {
		c.subs = make(map[uint64]func(T))
	}
	id := c.nextID
	c.nextID++
	c.subs[id] = fn

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *Cell[T]) notify(v T) {
	c.subMu.Lock()
	subs := make([]func(T), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.subMu.Unlock()

	for _, fn := range subs {
		fn(v)
	}
	if c.sched != nil {
		c.sched.Schedule()
	}
}

// Versioned tags a value with the version of the state it was taken from.
type Versioned[T any] struct {
	Version uint64
	Value   T
}

// Publish stores v unless c already holds a later version, and reports
// whether it did. Stores compute their next state under their own lock,
// release it and then publish, so subscribers can re-enter the store and a
// publisher that lost the race never overwrites newer state.
func Publish[T any](c *Cell[Versioned[T]], v Versioned[T]) bool {
	c.mu.Lock()
	if c.value.Version > v.Version {
		c.mu.Unlock()
		return false
	}
	c.value = v
	c.mu.Unlock()

	c.notify(v)
	return true
}

// Computed is a derived value recomputed from its inputs on every read.
// It is never cached, so it can not drift from the cells it reads.
type Computed[T any] struct {
	fn func() T
}

// Derive returns a Computed backed by fn.
func Derive[T any](fn func() T) Computed[T] {
	return Computed[T]{fn: fn}
}

// Get evaluates the derivation.
func (c Computed[T]) Get() T {
	return c.fn()
}
