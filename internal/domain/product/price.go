package product

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatPrice renders v as US dollars with grouping and two fraction
// digits, e.g. "$1,234.50". Digits come from the decimal text, so large
// amounts keep every cent.
func FormatPrice(v decimal.Decimal) string {
	s := v.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	if strings.Trim(s, "0.") == "" {
		sign = ""
	}
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	b.Grow(len(sign) + 1 + len(whole) + len(whole)/3 + 1 + len(frac))
	b.WriteString(sign)
	b.WriteByte('$')
	for i := range len(whole) {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteByte(whole[i])
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}
