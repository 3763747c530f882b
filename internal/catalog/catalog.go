// Package catalog holds the product list, its load state and the view
// filters, and derives the filtered, sorted product view from them.
package catalog

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/xenking/galaxy-store/internal/debounce"
	"github.com/xenking/galaxy-store/internal/domain/product"
	"github.com/xenking/galaxy-store/internal/reactive"
)

// DefaultSearchDelay is the quiet window of SetSearchTermDebounced.
const DefaultSearchDelay = 300 * time.Millisecond

// Messages recorded in Err when a fetch fails.
const (
	MsgLoadFailed   = "Failed to load products. Please try again."
	MsgDetailFailed = "Failed to load product details. Please try again."
	MsgSearchFailed = "Search failed. Please try again."
)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(lg *zap.Logger) Option {
	return func(s *Store) { s.lg = lg }
}

// WithClock sets the clock driving the search debounce.
func WithClock(c clockwork.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithSearchDelay sets the quiet window of SetSearchTermDebounced.
func WithSearchDelay(d time.Duration) Option {
	return func(s *Store) { s.searchDelay = d }
}

// Store is the catalog state. Every read and write goes through a cell, so
// the store holds no lock of its own while cells notify.
type Store struct {
	src         Source
	lg          *zap.Logger
	clock       clockwork.Clock
	searchDelay time.Duration
	search      *debounce.Debouncer

	list           *reactive.Cell[[]product.Product]
	loading        *reactive.Cell[bool]
	err            *reactive.Cell[string]
	searchTerm     *reactive.Cell[string]
	sortBy         *reactive.Cell[SortKey]
	filterCategory *reactive.Cell[string]
	filtered       reactive.Computed[[]product.Product]
}

// New returns an empty Store that fetches from src.
func New(src Source, sched reactive.Scheduler, opts ...Option) *Store {
	s := &Store{
		src:            src,
		lg:             zap.NewNop(),
		searchDelay:    DefaultSearchDelay,
		list:           reactive.NewCell[[]product.Product](sched, []product.Product{}),
		loading:        reactive.NewCell(sched, false),
		err:            reactive.NewCell(sched, ""),
		searchTerm:     reactive.NewCell(sched, ""),
		sortBy:         reactive.NewCell(sched, SortByName),
		filterCategory: reactive.NewCell(sched, AllCategories),
	}
	for _, o := range opts {
		o(s)
	}
	s.search = debounce.New(s.clock, s.searchDelay)
	s.filtered = reactive.Derive(func() []product.Product {
		return s.Filter().Apply(s.list.Get())
	})
	return s
}

// LoadAll replaces the product list with the source's catalog. On failure
// the list is left untouched and Err reports MsgLoadFailed. Concurrent
// calls are not deduplicated.
func (s *Store) LoadAll(ctx context.Context) {
	s.begin()

	products, err := s.src.List(ctx)
	if err != nil {
		s.fail(MsgLoadFailed, err)
		return
	}

	s.list.Set(products)
	s.loading.Set(false)
	s.lg.Debug("Catalog loaded", zap.Int("count", len(products)))
}

// LoadByID fetches a single product and inserts or refreshes it in the
// list. Sources without single product lookup fall back to LoadAll.
func (s *Store) LoadByID(ctx context.Context, id int) (product.Product, bool) {
	g, ok := s.src.(Getter)
	if !ok {
		s.LoadAll(ctx)
		return s.GetByID(id)
	}

	s.begin()
	p, err := g.Get(ctx, id)
	if err != nil {
		s.fail(MsgDetailFailed, err)
		return product.Product{}, false
	}

	s.list.Update(func(list []product.Product) []product.Product {
		next := make([]product.Product, len(list), len(list)+1)
		copy(next, list)
		for i := range next {
			if next[i].ID == p.ID {
				next[i] = p
				return next
			}
		}
		return append(next, p)
	})
	s.loading.Set(false)
	return p, true
}

// SearchRemote replaces the list with the source's search results for
// query. A blank query reloads the full catalog. Sources without server
// side search fall back to the local search term.
func (s *Store) SearchRemote(ctx context.Context, query string) {
	if strings.TrimSpace(query) == "" {
		s.LoadAll(ctx)
		return
	}
	sr, ok := s.src.(Searcher)
	if !ok {
		s.SetSearchTerm(query)
		return
	}

	s.begin()
	products, err := sr.Search(ctx, query)
	if err != nil {
		s.fail(MsgSearchFailed, err)
		return
	}

	s.list.Set(products)
	s.loading.Set(false)
}

func (s *Store) begin() {
	s.loading.Set(true)
	s.err.Set("")
}

func (s *Store) fail(msg string, err error) {
	s.err.Set(msg)
	s.loading.Set(false)
	s.lg.Error("Catalog fetch failed", zap.String("reason", msg), zap.Error(err))
}

// List returns the canonical product list in source order.
func (s *Store) List() []product.Product {
	return s.list.Get()
}

// Loading reports whether a fetch is in flight.
func (s *Store) Loading() bool {
	return s.loading.Get()
}

// Err returns the message of the last failed fetch, or "".
func (s *Store) Err() string {
	return s.err.Get()
}

// GetByID looks up a loaded product.
func (s *Store) GetByID(id int) (product.Product, bool) {
	for _, p := range s.list.Get() {
		if p.ID == id {
			return p, true
		}
	}
	return product.Product{}, false
}

// Lookup resolves user input such as a path segment to a loaded product.
func (s *Store) Lookup(raw string) (product.Product, error) {
	id, err := ParseID(raw)
	if err != nil {
		return product.Product{}, err
	}
	p, ok := s.GetByID(id)
	if !ok {
		return product.Product{}, errors.Wrapf(product.ErrNotFound, "id %d", id)
	}
	return p, nil
}

// ParseID parses a product ID from user input.
func ParseID(raw string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, errors.Wrapf(product.ErrNotFound, "invalid id %q", raw)
	}
	return id, nil
}

// Filtered returns the products matching the current filter, sorted. It is
// recomputed on every call.
func (s *Store) Filtered() []product.Product {
	return s.filtered.Get()
}

// Categories returns "all" followed by the distinct loaded categories.
func (s *Store) Categories() []string {
	return Categories(s.list.Get())
}

// Filter returns the current filter state.
func (s *Store) Filter() Filter {
	return Filter{
		SearchTerm: s.searchTerm.Get(),
		Category:   s.filterCategory.Get(),
		SortBy:     s.sortBy.Get(),
	}
}

// SearchTerm returns the current search term.
func (s *Store) SearchTerm() string { return s.searchTerm.Get() }

// SortBy returns the current sort key.
func (s *Store) SortBy() SortKey { return s.sortBy.Get() }

// FilterCategory returns the current category filter.
func (s *Store) FilterCategory() string { return s.filterCategory.Get() }

// SetSearchTerm updates the search term immediately and cancels a pending
// debounced update.
func (s *Store) SetSearchTerm(term string) {
	s.search.Cancel()
	s.setSearchTerm(term)
}

// SetSearchTermDebounced updates the search term once input has been quiet
// for the search delay. Only the last term of a burst is applied.
func (s *Store) SetSearchTermDebounced(term string) {
	s.search.Trigger(func() { s.setSearchTerm(term) })
}

func (s *Store) setSearchTerm(term string) {
	s.searchTerm.Set(term)
}

// SetSortBy updates the sort key. Unknown keys sort by name.
func (s *Store) SetSortBy(key SortKey) {
	s.sortBy.Set(key)
}

// SetFilterCategory updates the category filter. An empty category
// selects AllCategories.
func (s *Store) SetFilterCategory(category string) {
	if category == "" {
		category = AllCategories
	}
	s.filterCategory.Set(category)
}

// SearchDelay returns the quiet window of SetSearchTermDebounced.
func (s *Store) SearchDelay() time.Duration {
	return s.search.Delay()
}

// SearchPending reports whether a debounced search term is waiting.
func (s *Store) SearchPending() bool {
	return s.search.Pending()
}

// Close cancels the pending debounced search.
func (s *Store) Close() {
	s.search.Cancel()
}
