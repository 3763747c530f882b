package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/galaxy-store/internal/catalog/source"
	"github.com/xenking/galaxy-store/internal/domain/product"
	"github.com/xenking/galaxy-store/internal/storage/memory"
)

type noopTelemetry struct{}

func (noopTelemetry) MeterProvider() metric.MeterProvider  { return noop.NewMeterProvider() }
func (noopTelemetry) TracerProvider() trace.TracerProvider { return tracenoop.NewTracerProvider() }

// mockSource counts List calls and can be made to fail.
type mockSource struct {
	calls atomic.Int32
	fail  atomic.Bool
	// gate, when set, blocks List until closed.
	gate chan struct{}
}

func (m *mockSource) List(ctx context.Context) ([]product.Product, error) {
	m.calls.Add(1)
	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.fail.Load() {
		return nil, errors.New("source down")
	}
	mock, err := source.NewMock(nil, 0)
	if err != nil {
		return nil, err
	}
	return mock.List(ctx)
}

func testConfig() *Config {
	cfg := validConfig()
	return &cfg
}

func newTestApp(t *testing.T, opts ...Option) *App {
	t.Helper()
	a, err := New(context.Background(), zap.NewNop(), testConfig(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestNew_OpensConfiguredBackends(t *testing.T) {
	cfg := testConfig()
	cfg.Catalog.MockLatency = 0

	a, err := New(context.Background(), zap.NewNop(), cfg)
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	require.NoError(t, a.Start(context.Background()))
	assert.True(t, a.CatalogLoaded())
	assert.Len(t, a.Catalog.List(), 8)
	assert.Equal(t, "galaxy_store_cart", a.Cart.Key())
}

func TestNew_UnknownDriver(t *testing.T) {
	cfg := testConfig()
	cfg.Storage.Driver = "etcd"
	_, err := New(context.Background(), zap.NewNop(), cfg)
	assert.ErrorContains(t, err, "unknown storage driver")
}

func TestStart_RestoresCart(t *testing.T) {
	store := memory.New(0)
	src := &mockSource{}

	first := newTestApp(t, WithStorage(store), WithSource(src))
	require.NoError(t, first.Start(context.Background()))
	p, ok := first.Catalog.GetByID(1)
	require.True(t, ok)
	require.True(t, first.Cart.Add(context.Background(), &p))
	require.True(t, first.Cart.Add(context.Background(), &p))

	second := newTestApp(t, WithStorage(store), WithSource(src))
	require.NoError(t, second.Start(context.Background()))
	items := second.Cart.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].ID)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestEnsureCatalog_SharesConcurrentLoads(t *testing.T) {
	src := &mockSource{gate: make(chan struct{})}
	a := newTestApp(t, WithStorage(memory.New(0)), WithSource(src))

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = a.EnsureCatalog(context.Background())
		}()
	}
	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, time.Millisecond)
	close(src.gate)
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	require.NoError(t, a.EnsureCatalog(context.Background()))
	assert.LessOrEqual(t, src.calls.Load(), int32(2))
	assert.True(t, a.CatalogLoaded())
}

func TestEnsureCatalog_RetriesAfterFailure(t *testing.T) {
	src := &mockSource{}
	src.fail.Store(true)
	a := newTestApp(t, WithStorage(memory.New(0)), WithSource(src))

	assert.Error(t, a.EnsureCatalog(context.Background()))
	assert.False(t, a.CatalogLoaded())

	src.fail.Store(false)
	require.NoError(t, a.EnsureCatalog(context.Background()))
	assert.True(t, a.CatalogLoaded())

	calls := src.calls.Load()
	require.NoError(t, a.EnsureCatalog(context.Background()))
	assert.Equal(t, calls, src.calls.Load())
}

func TestHandler_HealthAndAPI(t *testing.T) {
	src := &mockSource{}
	a := newTestApp(t, WithStorage(memory.New(0)), WithSource(src))
	hc := a.NewHealth()
	h := a.Handler(context.Background(), hc, noopTelemetry{})

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	w := get("/livez")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	assert.Equal(t, http.StatusServiceUnavailable, get("/readyz").Code)

	w = get("/api/products")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, a.CatalogLoaded())

	hc.SetReady(true)
	hc.Start(context.Background(), time.Second)
	defer hc.Stop()
	require.Eventually(t, func() bool { return get("/readyz").Code == http.StatusOK }, time.Second, time.Millisecond)
}
