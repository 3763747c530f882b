// Package app wires the storefront stores to their storage backend,
// catalog source and view bridges.
package app

import (
	"context"
	"sync/atomic"

	"github.com/go-faster/errors"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/xenking/galaxy-store/internal/cart"
	"github.com/xenking/galaxy-store/internal/catalog"
	"github.com/xenking/galaxy-store/internal/catalog/source"
	"github.com/xenking/galaxy-store/internal/notify"
	"github.com/xenking/galaxy-store/internal/persist"
	"github.com/xenking/galaxy-store/internal/reactive"
	"github.com/xenking/galaxy-store/internal/storage"
	"github.com/xenking/galaxy-store/internal/storage/memory"
	"github.com/xenking/galaxy-store/internal/storage/postgres"
	redisstore "github.com/xenking/galaxy-store/internal/storage/redis"
	"github.com/xenking/galaxy-store/internal/storage/sqlite"
)

// Option configures New.
type Option func(*options)

type options struct {
	clock  clockwork.Clock
	redraw func()
	store  storage.Store
	source catalog.Source
}

// WithClock drives every timer of the application from c.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithRedraw sets the function called once per coalesced batch of state
// changes.
func WithRedraw(fn func()) Option {
	return func(o *options) { o.redraw = fn }
}

// WithStorage uses s instead of opening the configured driver.
func WithStorage(s storage.Store) Option {
	return func(o *options) { o.store = s }
}

// WithSource uses src instead of the configured catalog source.
func WithSource(src catalog.Source) Option {
	return func(o *options) { o.source = src }
}

// App owns the stores of one storefront session.
type App struct {
	cfg *Config
	lg  *zap.Logger

	Redrawer *reactive.Redrawer
	Notify   *notify.Service
	Storage  storage.Store
	Persist  *persist.Adapter
	Catalog  *catalog.Store
	Cart     *cart.Store

	loads   singleflight.Group
	loaded  atomic.Bool
	closers []func()
}

// New opens the storage backend and the catalog source and builds the
// stores. The cart is empty and the catalog unloaded until Start.
func New(ctx context.Context, lg *zap.Logger, cfg *Config, opts ...Option) (*App, error) {
	o := options{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{cfg: cfg, lg: lg}
	a.Redrawer = reactive.NewRedrawer(o.redraw)

	store := o.store
	if store == nil {
		s, err := openStorage(ctx, cfg.Storage)
		if err != nil {
			return nil, errors.Wrap(err, "open storage")
		}
		store = s
	}
	a.Storage = store

	src := o.source
	if src == nil {
		s, closeSource, err := openSource(ctx, cfg.Catalog, o.clock)
		if err != nil {
			_ = store.Close()
			return nil, errors.Wrap(err, "open catalog source")
		}
		src = s
		if closeSource != nil {
			a.closers = append(a.closers, closeSource)
		}
	}

	a.Notify = notify.New(a.Redrawer,
		notify.WithClock(o.clock),
		notify.WithDuration(cfg.Notification.Duration),
		notify.WithLogger(lg.Named("notify")),
	)
	a.Persist = persist.New(store,
		persist.WithVersion(cfg.Storage.Version),
		persist.WithClock(o.clock),
		persist.WithLogger(lg.Named("persist")),
	)
	a.Catalog = catalog.New(src, a.Redrawer,
		catalog.WithClock(o.clock),
		catalog.WithSearchDelay(cfg.Search.Debounce),
		catalog.WithLogger(lg.Named("catalog")),
	)
	a.Cart = cart.New(a.Persist, a.Notify, a.Redrawer,
		cart.WithInventory(a.Catalog),
		cart.WithKey(cfg.CartKey()),
		cart.WithClock(o.clock),
		cart.WithLogger(lg.Named("cart")),
	)

	lg.Debug("Application initialized",
		zap.String("storage", cfg.Storage.Driver),
		zap.String("catalog", cfg.Catalog.Source),
		zap.String("cart_key", cfg.CartKey()),
		zap.String("envelope_version", a.Persist.Version()),
		zap.Duration("search_debounce", a.Catalog.SearchDelay()),
	)
	return a, nil
}

// Config returns the configuration the App was built with.
func (a *App) Config() *Config {
	return a.cfg
}

// Start loads the catalog and restores the persisted cart in parallel.
// A failed catalog load is returned; the cart is restored regardless.
func (a *App) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.EnsureCatalog(ctx)
	})
	g.Go(func() error {
		a.Cart.Load(ctx)
		return nil
	})
	return g.Wait()
}

// EnsureCatalog loads the catalog once. Concurrent callers share the same
// fetch; after a failure the next call retries.
func (a *App) EnsureCatalog(ctx context.Context) error {
	if a.loaded.Load() {
		return nil
	}
	_, err, _ := a.loads.Do("catalog", func() (any, error) {
		if a.loaded.Load() {
			return nil, nil
		}
		a.Catalog.LoadAll(ctx)
		if msg := a.Catalog.Err(); msg != "" {
			return nil, errors.New(msg)
		}
		a.loaded.Store(true)
		return nil, nil
	})
	return err
}

// CatalogLoaded reports whether a catalog load has succeeded.
func (a *App) CatalogLoaded() bool {
	return a.loaded.Load()
}

// Close stops the timers and releases the storage backend and the source.
func (a *App) Close() error {
	a.Catalog.Close()
	a.Notify.Close()
	for _, c := range a.closers {
		c()
	}
	if err := a.Storage.Close(); err != nil {
		return errors.Wrap(err, "close storage")
	}
	return nil
}

func openStorage(ctx context.Context, cfg StorageConfig) (storage.Store, error) {
	switch cfg.Driver {
	case DriverMemory:
		return memory.New(cfg.Quota), nil
	case DriverSQLite:
		return sqlite.Open(cfg.Path, sqlite.Options{MaxPages: cfg.MaxPages})
	case DriverRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return redisstore.New(client, cfg.Redis.Prefix), nil
	case DriverPostgres:
		return postgres.OpenKVStore(ctx, cfg.DatabaseURL)
	default:
		return nil, errors.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func openSource(ctx context.Context, cfg CatalogConfig, clock clockwork.Clock) (catalog.Source, func(), error) {
	switch cfg.Source {
	case SourceMock:
		m, err := source.NewMock(clock, cfg.MockLatency)
		return m, nil, err
	case SourceFile:
		return source.NewFile(cfg.File), nil, nil
	case SourceHTTP:
		return source.NewHTTP(source.HTTPConfig{
			BaseURL: cfg.BaseURL,
			Limit:   cfg.Limit,
			Timeout: cfg.Timeout,
		}), nil, nil
	case SourcePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return source.NewPostgres(pool), pool.Close, nil
	default:
		return nil, nil, errors.Errorf("unknown catalog source %q", cfg.Source)
	}
}
