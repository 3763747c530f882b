package catalog

import (
	"sort"
	"strings"

	"github.com/go-faster/errors"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/xenking/galaxy-store/internal/domain/product"
)

// AllCategories is the category filter value that disables filtering.
const AllCategories = "all"

// SortKey selects the order of Filtered.
type SortKey string

const (
	SortByName      SortKey = "name"
	SortByPriceLow  SortKey = "price-low"
	SortByPriceHigh SortKey = "price-high"
)

// ErrInvalidSortKey is returned by ParseSortKey for unknown keys.
var ErrInvalidSortKey = errors.New("invalid sort key")

// ParseSortKey validates user input. An empty string selects SortByName.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.TrimSpace(s)); k {
	case "":
		return SortByName, nil
	case SortByName, SortByPriceLow, SortByPriceHigh:
		return k, nil
	default:
		return "", errors.Wrapf(ErrInvalidSortKey, "%q", s)
	}
}

// Filter is the view state applied by Apply.
type Filter struct {
	SearchTerm string
	Category   string
	SortBy     SortKey
}

// Apply runs the search, category and sort stages over a copy of list.
// The input slice is never reordered.
func (f Filter) Apply(list []product.Product) []product.Product {
	out := make([]product.Product, 0, len(list))

	term := strings.ToLower(strings.TrimSpace(f.SearchTerm))
	for _, p := range list {
		if term != "" && !matches(p, term) {
			continue
		}
		if f.Category != "" && f.Category != AllCategories && p.Category != f.Category {
			continue
		}
		out = append(out, p)
	}

	switch f.SortBy {
	case SortByPriceLow:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Price.LessThan(out[j].Price)
		})
	case SortByPriceHigh:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Price.GreaterThan(out[j].Price)
		})
	default:
		// Collators keep internal buffers and are not safe to share.
		c := collate.New(language.English)
		sort.SliceStable(out, func(i, j int) bool {
			return c.CompareString(out[i].Name, out[j].Name) < 0
		})
	}
	return out
}

func matches(p product.Product, term string) bool {
	return strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Description), term) ||
		strings.Contains(strings.ToLower(p.Category), term)
}

// Categories returns AllCategories followed by the distinct categories of
// list in order of first appearance.
func Categories(list []product.Product) []string {
	seen := make(map[string]struct{}, len(list))
	out := []string{AllCategories}
	for _, p := range list {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}
