package debounce

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncer_CoalescesRapidTriggers(t *testing.T) {
	clock := clockwork.NewFakeClock()
	d := New(clock, 300*time.Millisecond)

	var (
		calls atomic.Int32
		last  atomic.Value
	)
	for _, term := range []string{"p", "ph", "pho", "phone"} {
		d.Trigger(func() {
			calls.Add(1)
			last.Store(term)
		})
		clock.Advance(100 * time.Millisecond)
	}
	require.True(t, d.Pending())

	clock.Advance(300 * time.Millisecond)

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, "phone", last.Load())
	assert.False(t, d.Pending())
}

func TestDebouncer_NothingBeforeWindow(t *testing.T) {
	clock := clockwork.NewFakeClock()
	d := New(clock, 300*time.Millisecond)

	var calls atomic.Int32
	d.Trigger(func() { calls.Add(1) })
	clock.Advance(299 * time.Millisecond)

	assert.True(t, d.Pending())
	assert.Equal(t, int32(0), calls.Load())
}

func TestDebouncer_Cancel(t *testing.T) {
	clock := clockwork.NewFakeClock()
	d := New(clock, 300*time.Millisecond)

	var calls atomic.Int32
	d.Trigger(func() { calls.Add(1) })
	d.Cancel()
	assert.False(t, d.Pending())

	clock.Advance(time.Second)
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, int32(0), calls.Load())
}
