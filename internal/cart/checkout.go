package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/galaxy-store/internal/notify"
)

// Receipt acknowledges a checkout. No payment is taken.
type Receipt struct {
	ID        uuid.UUID
	Items     []LineItem
	Total     decimal.Decimal
	CreatedAt time.Time
}

// Overstocked returns the line items whose quantity exceeds the product's
// current stock. Such items are reported, never corrected.
func (s *Store) Overstocked() []LineItem {
	return s.overstocked(s.Items())
}

func (s *Store) overstocked(items []LineItem) []LineItem {
	var out []LineItem
	for _, li := range items {
		if li.Quantity > s.liveStock(li) {
			out = append(out, li)
		}
	}
	return out
}

// Checkout validates the cart and returns a receipt. It fails with an error
// notification for an empty cart or when any line exceeds current stock.
// The cart is left as is.
func (s *Store) Checkout(_ context.Context) (*Receipt, bool) {
	items := s.Items()
	if len(items) == 0 {
		s.notifier.Show(MsgEmpty, notify.KindError)
		return nil, false
	}
	if over := s.overstocked(items); len(over) > 0 {
		s.notifier.Show(MsgOverstocked, notify.KindError)
		return nil, false
	}

	r := &Receipt{
		ID:        uuid.New(),
		Items:     items,
		Total:     total(items),
		CreatedAt: s.clock.Now(),
	}
	s.notifier.Show(MsgCheckoutComplete, notify.KindInfo)
	s.lg.Info("Checkout acknowledged",
		zap.Stringer("receipt", r.ID),
		zap.Int("lines", len(items)),
		zap.String("total", r.Total.StringFixed(2)),
	)
	return r, true
}
