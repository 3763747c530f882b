package cart

import (
	"strconv"
	"strings"
)

// Quantity bounds of a line item.
const (
	MinQuantity = 1
	MaxQuantity = 99
)

// ClampQuantity forces n into [MinQuantity, MaxQuantity].
func ClampQuantity(n int) int {
	return max(MinQuantity, min(MaxQuantity, n))
}

// ParseQuantity reads a quantity typed by the user. Leading whitespace and
// trailing garbage are ignored ("12abc" is 12), input without leading
// digits yields MinQuantity, and the result is clamped.
func ParseQuantity(raw string) int {
	s := strings.TrimLeft(raw, " \t\r\n")

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return MinQuantity
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		// Out of range; the sign decides which bound applies.
		if s[0] == '-' {
			return MinQuantity
		}
		return MaxQuantity
	}
	return ClampQuantity(n)
}
