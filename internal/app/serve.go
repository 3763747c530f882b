package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/galaxy-store/internal/api"
	"github.com/xenking/galaxy-store/pkg/health"
	"github.com/xenking/galaxy-store/pkg/httpmiddleware"
)

const serviceName = "galaxy-store"

// Telemetry provides the OpenTelemetry providers of the HTTP server.
type Telemetry interface {
	MeterProvider() metric.MeterProvider
	TracerProvider() trace.TracerProvider
}

// NewHealth registers the liveness and readiness checks of the server.
func (a *App) NewHealth() *health.Health {
	h := health.New(nil)
	h.Register(health.Check{
		Name:    "goroutines",
		Kind:    health.Liveness,
		Timeout: time.Second,
		Func:    health.GoroutineCountCheck(10000),
	})
	h.Register(health.Check{
		Name:    "storage",
		Kind:    health.Readiness,
		Timeout: 5 * time.Second,
		Func:    health.PingCheck(a.Storage),
	})
	h.Register(health.Check{
		Name:             "catalog",
		Kind:             health.Readiness,
		FailureThreshold: 1,
		Func: health.ConditionCheck(func() error {
			if !a.CatalogLoaded() {
				return errors.New("catalog not loaded")
			}
			return nil
		}),
	})
	return h
}

// Handler returns the HTTP handler serving the API and the health probes.
func (a *App) Handler(ctx context.Context, hc *health.Health, m Telemetry) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", hc.LiveEndpoint)
	mux.HandleFunc("GET /readyz", hc.ReadyEndpoint)
	api.New(a.Catalog, a.Cart, a.Notify, api.WithLoader(a.EnsureCatalog)).Register(mux)

	routeFinder := httpmiddleware.MakeRouteFinder(mux)
	return httpmiddleware.Wrap(mux,
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins: a.cfg.Server.CORS.Origins,
			AllowHeaders: []string{"Content-Type", httpmiddleware.HeaderRequestID},
			MaxAge:       86400,
		}),
		httpmiddleware.RequestID(nil),
		httpmiddleware.InjectLogger(zctx.From(ctx)),
		httpmiddleware.Instrument(serviceName, routeFinder, m.MeterProvider(), m.TracerProvider()),
		httpmiddleware.LogRequests(routeFinder),
	)
}

// Serve runs the view bridge HTTP server until ctx is cancelled, then
// drains it: readiness goes false, and after the readiness delay the
// server shuts down within the shutdown timeout.
func (a *App) Serve(ctx context.Context, m Telemetry) error {
	cfg := a.cfg.Server
	lg := a.lg
	ctx = zctx.Base(ctx, lg)

	if err := a.Start(ctx); err != nil {
		// The catalog check keeps the server unready and the API retries
		// the load on demand.
		lg.Warn("Initial catalog load failed", zap.Error(err))
	}

	hc := a.NewHealth()
	hc.Start(ctx, 10*time.Second)
	hc.SetReady(true)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           a.Handler(ctx, hc, m),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := a.Redrawer.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return errors.Wrap(err, "redraw")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		hc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		hc.Stop()
		return nil
	})
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	return g.Wait()
}
