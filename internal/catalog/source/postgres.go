package source

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/galaxy-store/internal/catalog"
	"github.com/xenking/galaxy-store/internal/domain/product"
)

const (
	productsTable = "products"

	colID          = "id"
	colName        = "name"
	colPrice       = "price"
	colCategory    = "category"
	colStock       = "stock"
	colDescription = "description"
	colImage       = "image"
	colFeatures    = "features"
)

var productColumns = []any{colID, colName, colPrice, colCategory, colStock, colDescription, colImage, colFeatures}

var (
	_ catalog.Source   = (*Postgres)(nil)
	_ catalog.Getter   = (*Postgres)(nil)
	_ catalog.Searcher = (*Postgres)(nil)
)

// Postgres reads the catalog from the products table.
type Postgres struct {
	pool    *pgxpool.Pool
	dialect goqu.DialectWrapper
}

// NewPostgres returns a Postgres source that uses the given pool. The pool
// must have the decimal codec registered.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool, dialect: goqu.Dialect("postgres")}
}

func (s *Postgres) selectProducts() *goqu.SelectDataset {
	return s.dialect.From(productsTable).
		Prepared(true).
		Select(productColumns...).
		Order(goqu.I(colID).Asc())
}

// List returns all products ordered by ID.
func (s *Postgres) List(ctx context.Context) ([]product.Product, error) {
	query, args, err := s.selectProducts().ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build list query")
	}
	return s.query(ctx, query, args)
}

// Get returns the product with the given ID.
func (s *Postgres) Get(ctx context.Context, id int) (product.Product, error) {
	query, args, err := s.selectProducts().Where(goqu.C(colID).Eq(id)).ToSQL()
	if err != nil {
		return product.Product{}, errors.Wrap(err, "build get query")
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return product.Product{}, fmt.Errorf("getting product %d: %w", id, err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return product.Product{}, product.ErrNotFound
		}
		return product.Product{}, fmt.Errorf("getting product %d: %w", id, err)
	}
	return p, nil
}

// Search matches query against name, description and category.
func (s *Postgres) Search(ctx context.Context, query string) ([]product.Product, error) {
	pattern := "%" + query + "%"
	sql, args, err := s.selectProducts().Where(goqu.Or(
		goqu.C(colName).ILike(pattern),
		goqu.C(colDescription).ILike(pattern),
		goqu.C(colCategory).ILike(pattern),
	)).ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build search query")
	}
	return s.query(ctx, sql, args)
}

// Upsert inserts products or replaces existing rows with the same ID.
func (s *Postgres) Upsert(ctx context.Context, products []product.Product) error {
	if len(products) == 0 {
		return nil
	}
	query, args, err := upsertQuery(s.dialect, products)
	if err != nil {
		return errors.Wrap(err, "build upsert query")
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upserting %d products: %w", len(products), err)
	}
	return nil
}

func upsertQuery(dialect goqu.DialectWrapper, products []product.Product) (string, []any, error) {
	rows := make([]any, len(products))
	for i, p := range products {
		rows[i] = goqu.Record{
			colID:          p.ID,
			colName:        p.Name,
			colPrice:       p.Price.String(),
			colCategory:    p.Category,
			colStock:       p.Stock,
			colDescription: p.Description,
			colImage:       p.Image,
			colFeatures:    goqu.L("?::jsonb", string(product.EncodeFeatures(p.Features))),
		}
	}
	return dialect.Insert(productsTable).
		Prepared(true).
		Rows(rows...).
		OnConflict(goqu.DoUpdate(colID, goqu.Record{
			colName:        goqu.L("EXCLUDED.name"),
			colPrice:       goqu.L("EXCLUDED.price"),
			colCategory:    goqu.L("EXCLUDED.category"),
			colStock:       goqu.L("EXCLUDED.stock"),
			colDescription: goqu.L("EXCLUDED.description"),
			colImage:       goqu.L("EXCLUDED.image"),
			colFeatures:    goqu.L("EXCLUDED.features"),
		})).
		ToSQL()
}

func (s *Postgres) query(ctx context.Context, query string, args []any) ([]product.Product, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("scanning products: %w", err)
	}
	return products, nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p        product.Product
		price    decimal.Decimal
		features []byte
	)
	err := row.Scan(
		&p.ID, &p.Name, &price, &p.Category,
		&p.Stock, &p.Description, &p.Image, &features,
	)
	if err != nil {
		return p, err
	}
	p.Price = price
	p.Features, err = product.DecodeFeatures(features)
	return p, err
}
