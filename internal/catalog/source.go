package catalog

import (
	"context"

	"github.com/xenking/galaxy-store/internal/domain/product"
)

// Source fetches the product catalog.
type Source interface {
	List(ctx context.Context) ([]product.Product, error)
}

// Getter is implemented by sources that can fetch a single product. Get
// returns product.ErrNotFound for unknown IDs.
type Getter interface {
	Get(ctx context.Context, id int) (product.Product, error)
}

// Searcher is implemented by sources that can search server side.
type Searcher interface {
	Search(ctx context.Context, query string) ([]product.Product, error)
}
