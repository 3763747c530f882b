// Package source provides catalog.Source implementations: an embedded demo
// catalog, local JSON files, the DummyJSON HTTP API and a Postgres table.
package source

import (
	"context"
	_ "embed"
	"time"

	"github.com/go-faster/errors"
	"github.com/jonboulle/clockwork"

	"github.com/xenking/galaxy-store/internal/catalog"
	"github.com/xenking/galaxy-store/internal/domain/product"
)

//go:embed products.json
var demoCatalog []byte

// DefaultMockLatency simulates a network round trip.
const DefaultMockLatency = 500 * time.Millisecond

var (
	_ catalog.Source = (*Mock)(nil)
	_ catalog.Getter = (*Mock)(nil)
)

// Mock serves the embedded eight product demo catalog after a simulated
// latency.
type Mock struct {
	clock    clockwork.Clock
	latency  time.Duration
	products []product.Product
}

// NewMock returns a Mock. A nil clock uses the real clock.
func NewMock(clock clockwork.Clock, latency time.Duration) (*Mock, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	products, err := product.DecodeList(demoCatalog)
	if err != nil {
		return nil, errors.Wrap(err, "decode demo catalog")
	}
	return &Mock{clock: clock, latency: latency, products: products}, nil
}

// List returns a copy of the demo catalog.
func (m *Mock) List(ctx context.Context) ([]product.Product, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	out := make([]product.Product, len(m.products))
	for i, p := range m.products {
		out[i] = p.Clone()
	}
	return out, nil
}

// Get returns the demo product with the given ID.
func (m *Mock) Get(ctx context.Context, id int) (product.Product, error) {
	if err := m.wait(ctx); err != nil {
		return product.Product{}, err
	}
	for _, p := range m.products {
		if p.ID == id {
			return p.Clone(), nil
		}
	}
	return product.Product{}, errors.Wrapf(product.ErrNotFound, "id %d", id)
}

func (m *Mock) wait(ctx context.Context) error {
	if m.latency <= 0 {
		return nil
	}
	select {
	case <-m.clock.After(m.latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
