// Package cart implements the shopping cart store: line items with stock
// and quantity invariants, persisted after every mutation and reported to
// the user through notifications.
package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/galaxy-store/internal/domain/product"
	"github.com/xenking/galaxy-store/internal/notify"
	"github.com/xenking/galaxy-store/internal/persist"
	"github.com/xenking/galaxy-store/internal/reactive"
	"github.com/xenking/galaxy-store/internal/storage"
)

// DefaultKey is the storage key of the default application.
const DefaultKey = "galaxy_store_cart"

// User-facing messages.
const (
	MsgInvalidProduct   = "Invalid product"
	MsgOutOfStock       = "Product is out of stock"
	MsgExceedsStock     = "Cannot add more items than available in stock"
	MsgMaxQuantity      = "Maximum quantity is 99"
	MsgCleared          = "Cart cleared"
	MsgQuotaExceeded    = "Storage quota exceeded. Please clear some space."
	MsgSaveFailed       = "Failed to save cart"
	MsgEmpty            = "Your cart is empty"
	MsgOverstocked      = "Some items exceed available stock. Please adjust quantities."
	MsgCheckoutComplete = "Checkout functionality would process payment here!"
)

// LineItem is a product copied into the cart with a quantity.
type LineItem struct {
	product.Product
	Quantity int
}

// Subtotal returns price × quantity.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Inventory reports the current catalog state of a product.
type Inventory interface {
	GetByID(id int) (product.Product, bool)
}

// Notifier shows user feedback.
type Notifier interface {
	Show(message string, kind notify.Kind)
}

// Persister stores the cart payload.
type Persister interface {
	Save(ctx context.Context, key string, v persist.Encoder) error
	Load(ctx context.Context, key string) (jx.Raw, bool)
}

// Option configures a Store.
type Option func(*Store)

// WithInventory sets the source of live stock levels.
func WithInventory(inv Inventory) Option {
	return func(s *Store) { s.inv = inv }
}

// WithKey sets the storage key.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithLogger sets the logger.
func WithLogger(lg *zap.Logger) Option {
	return func(s *Store) { s.lg = lg }
}

// WithClock sets the clock used for receipt timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// Store is the shopping cart. Mutations are serialized on mu and publish
// the new line items once mu is released, so subscribers and notification
// handlers may call back into the store. Reads go through the items cell
// and never block on a mutation.
type Store struct {
	persister Persister
	notifier  Notifier
	inv       Inventory
	key       string
	clock     clockwork.Clock
	lg        *zap.Logger

	mu      sync.Mutex
	version uint64
	lines   []LineItem
	items   *reactive.Cell[reactive.Versioned[[]LineItem]]
}

// New returns an empty cart. Call Load to restore the persisted state.
func New(p Persister, n Notifier, sched reactive.Scheduler, opts ...Option) *Store {
	s := &Store{
		persister: p,
		notifier:  n,
		key:       DefaultKey,
		clock:     clockwork.NewRealClock(),
		lg:        zap.NewNop(),
		lines:     []LineItem{},
		items:     reactive.NewCell(sched, reactive.Versioned[[]LineItem]{Value: []LineItem{}}),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Key returns the storage key of the cart.
func (s *Store) Key() string {
	return s.key
}

// Add puts one unit of p in the cart and reports whether it did.
func (s *Store) Add(ctx context.Context, p *product.Product) bool {
	if p == nil || p.ID == 0 {
		s.notifier.Show(MsgInvalidProduct, notify.KindError)
		return false
	}
	if p.Stock <= 0 {
		s.notifier.Show(MsgOutOfStock, notify.KindError)
		return false
	}

	s.mu.Lock()
	next := make([]LineItem, len(s.lines), len(s.lines)+1)
	copy(next, s.lines)

	if i := indexOf(next, p.ID); i >= 0 {
		var reject string
		switch q := next[i].Quantity; {
		case q >= p.Stock:
			reject = MsgExceedsStock
		case q >= MaxQuantity:
			reject = MsgMaxQuantity
		}
		if reject != "" {
			s.mu.Unlock()
			s.notifier.Show(reject, notify.KindError)
			return false
		}
		next[i].Quantity++
	} else {
		next = append(next, LineItem{Product: p.Clone(), Quantity: 1})
	}
	pub, err := s.commitLocked(ctx, next)
	s.mu.Unlock()

	s.lg.Debug("Added to cart", zap.Int("id", p.ID), zap.Int("lines", len(next)))
	s.publish(pub, err, p.Name+" added to cart!", notify.KindSuccess)
	return true
}

// Remove deletes the line item with the given ID. Unknown IDs are ignored.
func (s *Store) Remove(ctx context.Context, id int) {
	s.mu.Lock()
	i := indexOf(s.lines, id)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	name := s.lines[i].Name

	next := make([]LineItem, 0, len(s.lines)-1)
	next = append(next, s.lines[:i]...)
	next = append(next, s.lines[i+1:]...)
	pub, err := s.commitLocked(ctx, next)
	s.mu.Unlock()

	s.lg.Debug("Removed from cart", zap.Int("id", id))
	s.publish(pub, err, name+" removed from cart", notify.KindSuccess)
}

// UpdateQuantity sets the quantity of a line item. qty is clamped into
// [MinQuantity, MaxQuantity] first; a value above the product's current
// stock is rejected and leaves the cart unchanged.
func (s *Store) UpdateQuantity(ctx context.Context, id, qty int) {
	qty = ClampQuantity(qty)

	s.mu.Lock()
	i := indexOf(s.lines, id)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	if stock := s.liveStock(s.lines[i]); qty > stock {
		s.mu.Unlock()
		s.notifier.Show(fmt.Sprintf("Only %d items available in stock", stock), notify.KindError)
		return
	}

	next := make([]LineItem, len(s.lines))
	copy(next, s.lines)
	next[i].Quantity = qty
	pub, err := s.commitLocked(ctx, next)
	s.mu.Unlock()

	s.lg.Debug("Quantity updated", zap.Int("id", id), zap.Int("quantity", qty))
	s.publish(pub, err, "", "")
}

// UpdateQuantityInput is UpdateQuantity for raw user input, parsed with
// ParseQuantity.
func (s *Store) UpdateQuantityInput(ctx context.Context, id int, raw string) {
	s.UpdateQuantity(ctx, id, ParseQuantity(raw))
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	pub, err := s.commitLocked(ctx, []LineItem{})
	s.mu.Unlock()

	s.lg.Debug("Cart cleared")
	s.publish(pub, err, MsgCleared, notify.KindSuccess)
}

// Items returns a copy of the line items in insertion order.
func (s *Store) Items() []LineItem {
	items := s.items.Get().Value
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}

// Subscribe calls fn with the line items after every change.
func (s *Store) Subscribe(fn func([]LineItem)) (cancel func()) {
	return s.items.Subscribe(func(v reactive.Versioned[[]LineItem]) { fn(v.Value) })
}

// Total returns the sum of all subtotals.
func (s *Store) Total() decimal.Decimal {
	return total(s.items.Get().Value)
}

// Count returns the number of units in the cart.
func (s *Store) Count() int {
	n := 0
	for _, li := range s.items.Get().Value {
		n += li.Quantity
	}
	return n
}

// Save writes the cart to storage.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx)
}

// Load replaces the cart with the persisted one. Missing or malformed
// payloads leave the cart untouched. Repeated IDs are dropped and
// quantities clamped.
func (s *Store) Load(ctx context.Context) {
	raw, ok := s.persister.Load(ctx, s.key)
	if !ok {
		return
	}
	loaded, err := decodeLines(raw)
	if err != nil {
		s.lg.Warn("Ignoring persisted cart", zap.String("key", s.key), zap.Error(err))
		return
	}

	s.mu.Lock()
	pub := s.setLocked(loaded.normalize())
	s.mu.Unlock()

	reactive.Publish(s.items, pub)
	s.lg.Debug("Cart loaded", zap.Int("lines", len(loaded)))
}

// setLocked makes next the current line items. Must be called with s.mu
// held; the result is published once it is released.
func (s *Store) setLocked(next []LineItem) reactive.Versioned[[]LineItem] {
	s.lines = next
	s.version++
	return reactive.Versioned[[]LineItem]{Version: s.version, Value: next}
}

// commitLocked is setLocked followed by a save, so successive saves reach
// storage in mutation order.
func (s *Store) commitLocked(ctx context.Context, next []LineItem) (reactive.Versioned[[]LineItem], error) {
	pub := s.setLocked(next)
	return pub, s.saveLocked(ctx)
}

func (s *Store) saveLocked(ctx context.Context) error {
	return s.persister.Save(ctx, s.key, lines(s.lines))
}

// publish announces a committed change and then shows msg. A failed save
// shows an error instead.
func (s *Store) publish(pub reactive.Versioned[[]LineItem], saveErr error, msg string, kind notify.Kind) {
	reactive.Publish(s.items, pub)
	if saveErr != nil {
		if errors.Is(saveErr, storage.ErrQuotaExceeded) {
			s.notifier.Show(MsgQuotaExceeded, notify.KindError)
		} else {
			s.notifier.Show(MsgSaveFailed, notify.KindError)
		}
		return
	}
	if msg != "" {
		s.notifier.Show(msg, kind)
	}
}

// liveStock returns the catalog's current stock for the item, or the
// snapshot taken when it was added if the catalog does not know it.
func (s *Store) liveStock(li LineItem) int {
	if s.inv != nil {
		if p, ok := s.inv.GetByID(li.ID); ok {
			return p.Stock
		}
	}
	return li.Stock
}

func total(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, li := range items {
		sum = sum.Add(li.Subtotal())
	}
	return sum
}

func indexOf(items []LineItem, id int) int {
	for i, li := range items {
		if li.ID == id {
			return i
		}
	}
	return -1
}
