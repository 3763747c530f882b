// Command seed-catalog loads a product catalog into the Postgres products
// table used by the postgres catalog source.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	"github.com/xenking/galaxy-store/internal/catalog/source"
	"github.com/xenking/galaxy-store/internal/domain/product"
	"github.com/xenking/galaxy-store/internal/storage/postgres"
)

func main() {
	var (
		databaseURL  string
		productsFile string
	)
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "", "products JSON file, optionally gzipped (default: built-in demo catalog)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}

	app.Run(func(ctx context.Context, lg *zap.Logger, _ *app.Telemetry) error {
		if databaseURL == "" {
			return errors.New("database URL is required: set --database-url or DATABASE_URL")
		}
		if err := run(ctx, lg, databaseURL, productsFile); err != nil {
			return errors.Wrap(err, "seed")
		}
		lg.Info("Seed completed")
		return nil
	})
}

func run(ctx context.Context, lg *zap.Logger, databaseURL, productsFile string) error {
	products, err := readProducts(ctx, productsFile)
	if err != nil {
		return err
	}

	lg.Info("Connecting to database")
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	lg.Info("Running migrations")
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	lg.Info("Upserting products", zap.Int("count", len(products)))
	if err := source.NewPostgres(pool).Upsert(ctx, products); err != nil {
		return errors.Wrap(err, "upsert products")
	}
	for _, p := range products {
		lg.Debug("Upserted product", zap.Int("id", p.ID), zap.String("name", p.Name))
	}
	return nil
}

func readProducts(ctx context.Context, path string) ([]product.Product, error) {
	if path == "" {
		mock, err := source.NewMock(nil, 0)
		if err != nil {
			return nil, err
		}
		return mock.List(ctx)
	}
	data, err := source.ReadCatalogFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read products file")
	}
	products, err := product.DecodeList(data)
	if err != nil {
		return nil, errors.Wrap(err, "parse products file")
	}
	return products, nil
}
