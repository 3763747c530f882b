package reactive

import (
	"context"
	"sync"
	"sync/atomic"
)

// Redrawer is a Scheduler that coalesces redraw requests.
//
// Schedule marks a redraw as pending; only the transition from idle to
// pending wakes the loop. The pending flag is cleared right before the
// redraw function runs, so writes made during a redraw schedule the next
// one.
type Redrawer struct {
	redraw  func()
	pending atomic.Bool
	wake    chan struct{}
	count   atomic.Int64

	// mu serializes redraw invocations between Run and Flush.
	mu sync.Mutex
}

// NewRedrawer returns a Redrawer that calls redraw once per coalesced batch
// of Schedule calls. A nil redraw is allowed and only counts batches.
func NewRedrawer(redraw func()) *Redrawer {
	if redraw == nil {
		redraw = func() {}
	}
	return &Redrawer{
		redraw: redraw,
		wake:   make(chan struct{}, 1),
	}
}

// Schedule requests a redraw.
func (r *Redrawer) Schedule() {
	if !r.pending.CompareAndSwap(false, true) {
		return
	}
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Pending reports whether a redraw has been requested but not yet run.
func (r *Redrawer) Pending() bool {
	return r.pending.Load()
}

// Redraws returns the number of redraws performed so far.
func (r *Redrawer) Redraws() int64 {
	return r.count.Load()
}

// Flush runs a pending redraw synchronously. It reports whether a redraw
// was performed.
func (r *Redrawer) Flush() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.pending.CompareAndSwap(true, false) {
		return false
	}
	r.count.Add(1)
	r.redraw()
	return true
}

// Run performs redraws as they are requested until ctx is cancelled.
func (r *Redrawer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.wake:
			r.Flush()
		}
	}
}
