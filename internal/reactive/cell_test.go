package reactive

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingScheduler struct {
	mu    sync.Mutex
	calls int
}

func (s *countingScheduler) Schedule() {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

func (s *countingScheduler) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestCell_GetReflectsLatestWrite(t *testing.T) {
	c := NewCell[int](nil, 1)
	assert.Equal(t, 1, c.Get())

	c.Set(2)
	assert.Equal(t, 2, c.Get())

	got := c.Update(func(v int) int { return v * 10 })
	assert.Equal(t, 20, got)
	assert.Equal(t, 20, c.Get())
}

func TestCell_EveryWriteSchedules(t *testing.T) {
	sched := &countingScheduler{}
	c := NewCell(sched, "a")

	c.Set("b")
	c.Set("b") // same value still schedules
	c.Update(func(s string) string { return s + "c" })

	assert.Equal(t, 3, sched.Calls())
}

func TestCell_Subscribe(t *testing.T) {
	c := NewCell[int](nil, 0)

	var seen []int
	cancel := c.Subscribe(func(v int) { seen = append(seen, v) })

	c.Set(1)
	c.Set(2)
	cancel()
	c.Set(3)

	assert.Equal(t, []int{1, 2}, seen)
}

func TestComputed_RecomputesOnEveryRead(t *testing.T) {
	a := NewCell[int](nil, 2)
	b := NewCell[int](nil, 3)

	calls := 0
	sum := Derive(func() int {
		calls++
		return a.Get() + b.Get()
	})

	assert.Equal(t, 5, sum.Get())
	a.Set(10)
	assert.Equal(t, 13, sum.Get())
	assert.Equal(t, 13, sum.Get())
	assert.Equal(t, 3, calls)
}

func TestPublish_SkipsOlderVersions(t *testing.T) {
	sched := &countingScheduler{}
	c := NewCell(sched, Versioned[string]{})

	var seen []string
	cancel := c.Subscribe(func(v Versioned[string]) { seen = append(seen, v.Value) })
	defer cancel()

	assert.True(t, Publish(c, Versioned[string]{Version: 2, Value: "newer"}))
	assert.False(t, Publish(c, Versioned[string]{Version: 1, Value: "older"}))
	assert.True(t, Publish(c, Versioned[string]{Version: 2, Value: "same version"}))

	assert.Equal(t, "same version", c.Get().Value)
	assert.Equal(t, []string{"newer", "same version"}, seen)
	assert.Equal(t, 2, sched.Calls())
}

func TestRedrawer_CoalescesWrites(t *testing.T) {
	redraws := 0
	r := NewRedrawer(func() { redraws++ })

	a := NewCell(r, 0)
	b := NewCell(r, "")
	a.Set(1)
	a.Set(2)
	b.Set("x")

	require.True(t, r.Pending())
	assert.True(t, r.Flush())
	assert.False(t, r.Flush(), "nothing left to redraw")
	assert.Equal(t, 1, redraws)
	assert.Equal(t, int64(1), r.Redraws())

	a.Set(3)
	assert.True(t, r.Flush())
	assert.Equal(t, 2, redraws)
}

func TestRedrawer_Run(t *testing.T) {
	r := NewRedrawer(nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	c := NewCell(r, 0)
	c.Set(1)

	require.Eventually(t, func() bool { return r.Redraws() >= 1 }, time.Second, time.Millisecond)
	assert.False(t, r.Pending())

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}
