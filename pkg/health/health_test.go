package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passingCheck() CheckFunc {
	return func(context.Context) error { return nil }
}

func failingCheck(msg string) CheckFunc {
	return func(context.Context) error { return errors.New(msg) }
}

func serve(h http.HandlerFunc) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w
}

func runN(h *Health, n int) {
	for range n {
		for _, s := range h.checks {
			s.run(context.Background())
		}
	}
}

func TestLiveEndpoint_AllPassing(t *testing.T) {
	h := New(nil)
	h.Register(Check{Name: "goroutines", Kind: Liveness, Func: passingCheck()})
	h.Register(Check{Name: "storage", Kind: Readiness, Func: failingCheck("ignored")})
	runN(h, 3)

	w := serve(h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok","checks":{"goroutines":"ok"}}`, w.Body.String())
}

func TestLiveEndpoint_NoChecks(t *testing.T) {
	w := serve(New(nil).LiveEndpoint)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestThresholds(t *testing.T) {
	tests := []struct {
		name     string
		failures int
		want     int
	}{
		{name: "below threshold", failures: 2, want: http.StatusOK},
		{name: "at threshold", failures: 3, want: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(nil)
			h.Register(Check{Name: "db", Kind: Liveness, Func: failingCheck("connection refused")})
			runN(h, tt.failures)
			assert.Equal(t, tt.want, serve(h.LiveEndpoint).Code)
		})
	}
}

func TestLiveEndpoint_ReportsError(t *testing.T) {
	h := New(nil)
	h.Register(Check{Name: "db", Kind: Liveness, Func: failingCheck("connection refused"), FailureThreshold: 1})
	runN(h, 1)

	w := serve(h.LiveEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"unhealthy","checks":{"db":"connection refused"}}`, w.Body.String())
}

func TestRecoveryNeedsSuccessThreshold(t *testing.T) {
	var failing atomic.Bool
	failing.Store(true)

	h := New(nil)
	h.Register(Check{
		Name:             "redis",
		Kind:             Readiness,
		FailureThreshold: 1,
		SuccessThreshold: 2,
		Func: func(context.Context) error {
			if failing.Load() {
				return errors.New("down")
			}
			return nil
		},
	})
	h.SetReady(true)

	runN(h, 1)
	assert.False(t, h.IsReady())

	failing.Store(false)
	runN(h, 1)
	assert.False(t, h.IsReady(), "one success is not enough")
	runN(h, 1)
	assert.True(t, h.IsReady())
}

func TestReadyEndpoint(t *testing.T) {
	h := New(nil)
	h.Register(Check{Name: "storage", Kind: Readiness, Func: passingCheck()})

	w := serve(h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"unhealthy","checks":{"_readiness":"service is not ready","storage":"ok"}}`, w.Body.String())

	h.SetReady(true)
	w = serve(h.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, h.IsReady())

	h.SetReady(false)
	assert.False(t, h.IsReady())
}

func TestStartRunsOnTicker(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var calls atomic.Int32

	h := New(clock)
	h.Register(Check{Name: "count", Kind: Liveness, Func: func(context.Context) error {
		calls.Add(1)
		return nil
	}})

	ctx := context.Background()
	h.Start(ctx, 10*time.Second)
	defer h.Stop()

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	clock.Advance(10 * time.Second)
	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, time.Millisecond)

	h.Stop()
	h.Stop()
}

func TestCheckers(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, GoroutineCountCheck(1_000_000)(ctx))
	assert.Error(t, GoroutineCountCheck(0)(ctx))

	assert.NoError(t, PingCheck(pingerFunc(func(context.Context) error { return nil }))(ctx))
	err := PingCheck(pingerFunc(func(context.Context) error { return errors.New("refused") }))(ctx)
	assert.ErrorContains(t, err, "refused")

	assert.NoError(t, ConditionCheck(func() error { return nil })(ctx))
	assert.Error(t, ConditionCheck(func() error { return errors.New("not loaded") })(ctx))
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }
