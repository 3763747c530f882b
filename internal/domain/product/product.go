package product

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// LowStockThreshold is the stock level at or below which an in-stock
// product is flagged as running low.
const LowStockThreshold = 5

// Product represents a catalog item available for purchase. Products are
// values and are never mutated after loading.
type Product struct {
	ID          int
	Name        string
	Price       decimal.Decimal
	Category    string
	Stock       int
	Description string
	Image       string
	Features    []string
}

// InStock reports whether at least one unit is available.
func (p Product) InStock() bool {
	return p.Stock > 0
}

// LowStock reports whether the product is in stock but at or below
// LowStockThreshold.
func (p Product) LowStock() bool {
	return p.Stock > 0 && p.Stock <= LowStockThreshold
}

// StockLabel describes the stock level for display.
func (p Product) StockLabel() string {
	switch {
	case !p.InStock():
		return "Out of Stock"
	case p.LowStock():
		return fmt.Sprintf("Only %d left!", p.Stock)
	default:
		return fmt.Sprintf("In Stock (%d)", p.Stock)
	}
}

// Clone returns a copy that shares no slices with p.
func (p Product) Clone() Product {
	if p.Features != nil {
		p.Features = append([]string(nil), p.Features...)
	}
	return p
}
