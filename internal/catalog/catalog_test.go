package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/galaxy-store/internal/domain/product"
	"github.com/xenking/galaxy-store/internal/reactive"
)

// mockSource implements Source, Getter and Searcher for tests.
type mockSource struct {
	products []product.Product
	listErr  error
	getErr   error
	searched string
}

func (m *mockSource) List(context.Context) ([]product.Product, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]product.Product(nil), m.products...), nil
}

func (m *mockSource) Get(_ context.Context, id int) (product.Product, error) {
	if m.getErr != nil {
		return product.Product{}, m.getErr
	}
	for _, p := range m.products {
		if p.ID == id {
			return p, nil
		}
	}
	return product.Product{}, product.ErrNotFound
}

func (m *mockSource) Search(_ context.Context, q string) ([]product.Product, error) {
	m.searched = q
	return Filter{SearchTerm: q}.Apply(m.products), nil
}

// listOnly hides the optional interfaces of mockSource.
type listOnly struct{ src *mockSource }

func (l listOnly) List(ctx context.Context) ([]product.Product, error) { return l.src.List(ctx) }

func prod(id int, name, price, category string, stock int) product.Product {
	return product.Product{
		ID:          id,
		Name:        name,
		Price:       decimal.RequireFromString(price),
		Category:    category,
		Stock:       stock,
		Description: name + " description",
		Features:    []string{},
	}
}

func testProducts() []product.Product {
	return []product.Product{
		prod(1, "Wireless Headphones", "79.99", "audio", 15),
		prod(2, "Smart Watch", "199.99", "wearables", 8),
		prod(3, "Laptop Stand", "49.99", "accessories", 25),
		prod(4, "Mechanical Keyboard", "129.99", "peripherals", 12),
		prod(5, "USB-C Hub", "39.99", "accessories", 30),
	}
}

func names(list []product.Product) []string {
	out := make([]string, len(list))
	for i, p := range list {
		out[i] = p.Name
	}
	return out
}

func TestStore_LoadAll(t *testing.T) {
	src := &mockSource{products: testProducts()}
	r := reactive.NewRedrawer(nil)
	s := New(src, r)

	s.LoadAll(context.Background())

	assert.Len(t, s.List(), 5)
	assert.False(t, s.Loading())
	assert.Empty(t, s.Err())
	assert.True(t, r.Pending())
}

func TestStore_LoadAllFailureKeepsList(t *testing.T) {
	src := &mockSource{products: testProducts()}
	s := New(src, nil)
	ctx := context.Background()

	s.LoadAll(ctx)
	require.Len(t, s.List(), 5)

	src.listErr = errors.New("network down")
	s.LoadAll(ctx)

	assert.Len(t, s.List(), 5, "failed load must not clear the list")
	assert.Equal(t, MsgLoadFailed, s.Err())
	assert.False(t, s.Loading())

	src.listErr = nil
	s.LoadAll(ctx)
	assert.Empty(t, s.Err(), "a new load clears the previous error")
}

func TestStore_LoadByID(t *testing.T) {
	src := &mockSource{products: testProducts()}
	s := New(src, nil)
	ctx := context.Background()

	p, ok := s.LoadByID(ctx, 3)
	require.True(t, ok)
	assert.Equal(t, "Laptop Stand", p.Name)
	assert.Equal(t, []string{"Laptop Stand"}, names(s.List()))

	src.products[2].Stock = 1
	p, ok = s.LoadByID(ctx, 3)
	require.True(t, ok)
	assert.Equal(t, 1, p.Stock)
	require.Len(t, s.List(), 1, "refresh replaces the cached entry")
	assert.Equal(t, 1, s.List()[0].Stock)

	_, ok = s.LoadByID(ctx, 99)
	assert.False(t, ok)
	assert.Equal(t, MsgDetailFailed, s.Err())
}

func TestStore_LoadByIDWithoutGetter(t *testing.T) {
	s := New(listOnly{src: &mockSource{products: testProducts()}}, nil)

	p, ok := s.LoadByID(context.Background(), 4)
	require.True(t, ok)
	assert.Equal(t, "Mechanical Keyboard", p.Name)
	assert.Len(t, s.List(), 5)
}

func TestStore_SearchRemote(t *testing.T) {
	src := &mockSource{products: testProducts()}
	s := New(src, nil)
	ctx := context.Background()

	s.SearchRemote(ctx, "watch")
	assert.Equal(t, "watch", src.searched)
	assert.Equal(t, []string{"Smart Watch"}, names(s.List()))

	s.SearchRemote(ctx, "  ")
	assert.Len(t, s.List(), 5, "blank query reloads everything")
}

func TestStore_SearchRemoteWithoutSearcher(t *testing.T) {
	s := New(listOnly{src: &mockSource{products: testProducts()}}, nil)
	ctx := context.Background()
	s.LoadAll(ctx)

	s.SearchRemote(ctx, "hub")
	assert.Equal(t, "hub", s.SearchTerm())
	assert.Equal(t, []string{"USB-C Hub"}, names(s.Filtered()))
}

func TestStore_GetByIDAndLookup(t *testing.T) {
	s := New(&mockSource{products: testProducts()}, nil)
	s.LoadAll(context.Background())

	p, ok := s.GetByID(2)
	require.True(t, ok)
	assert.Equal(t, "Smart Watch", p.Name)

	_, ok = s.GetByID(42)
	assert.False(t, ok)

	p, err := s.Lookup(" 5 ")
	require.NoError(t, err)
	assert.Equal(t, "USB-C Hub", p.Name)

	_, err = s.Lookup("abc")
	assert.ErrorIs(t, err, product.ErrNotFound)
	_, err = s.Lookup("42")
	assert.ErrorIs(t, err, product.ErrNotFound)
}

func TestStore_FilteredReflectsFilterChanges(t *testing.T) {
	s := New(&mockSource{products: testProducts()}, nil)
	s.LoadAll(context.Background())

	assert.Equal(t, []string{
		"Laptop Stand", "Mechanical Keyboard", "Smart Watch", "USB-C Hub", "Wireless Headphones",
	}, names(s.Filtered()))

	s.SetFilterCategory("accessories")
	s.SetSortBy(SortByPriceHigh)
	assert.Equal(t, []string{"Laptop Stand", "USB-C Hub"}, names(s.Filtered()))

	s.SetFilterCategory("")
	assert.Equal(t, AllCategories, s.FilterCategory())
	assert.Len(t, s.Filtered(), 5)

	assert.Equal(t, 1, s.List()[0].ID, "canonical order is untouched")
}

func TestStore_Categories(t *testing.T) {
	s := New(&mockSource{products: testProducts()}, nil)
	assert.Equal(t, []string{"all"}, s.Categories())

	s.LoadAll(context.Background())
	assert.Equal(t, []string{"all", "audio", "wearables", "accessories", "peripherals"}, s.Categories())
}

func TestStore_SetSearchTermDebounced(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := New(&mockSource{products: testProducts()}, nil, WithClock(clock))
	defer s.Close()

	for _, term := range []string{"w", "wi", "wir", "wireless"} {
		s.SetSearchTermDebounced(term)
		clock.Advance(100 * time.Millisecond)
	}
	assert.Empty(t, s.SearchTerm(), "nothing applied inside the quiet window")
	assert.True(t, s.SearchPending())

	clock.Advance(DefaultSearchDelay)
	require.Eventually(t, func() bool {
		return s.SearchTerm() == "wireless"
	}, time.Second, 5*time.Millisecond)
}

func TestStore_SetSearchTermCancelsDebounce(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := New(&mockSource{}, nil, WithClock(clock))

	s.SetSearchTermDebounced("stale")
	s.SetSearchTerm("fresh")
	assert.False(t, s.SearchPending())

	clock.Advance(time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, "fresh", s.SearchTerm())
}

func TestStore_CloseCancelsDebounce(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := New(&mockSource{}, nil, WithClock(clock))

	s.SetSearchTermDebounced("phone")
	s.Close()
	clock.Advance(time.Second)
	time.Sleep(20 * time.Millisecond)

	assert.Empty(t, s.SearchTerm())
}

func TestParseSortKey(t *testing.T) {
	tests := []struct {
		in      string
		want    SortKey
		wantErr bool
	}{
		{in: "", want: SortByName},
		{in: "name", want: SortByName},
		{in: "price-low", want: SortByPriceLow},
		{in: " price-high ", want: SortByPriceHigh},
		{in: "rating", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSortKey(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSortKey)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
