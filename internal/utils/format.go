package utils

import (
	"math"
	"strconv"
	"strings"
)

// MaxDisplayLength is the rune limit for free-text values in change history
const MaxDisplayLength = 100

var currencySymbols = map[string]string{
	"INR": "₹",
}

// FormatMoney renders an amount with two decimals and thousands separators,
// prefixed by the currency symbol when one is known or by the ISO code otherwise.
func FormatMoney(amount float64, currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "INR"
	}
	num := formatNumber(amount)
	if sym, ok := currencySymbols[currency]; ok {
		return sym + num
	}
	return currency + " " + num
}

func formatNumber(amount float64) string {
	neg := amount < 0
	s := strconv.FormatFloat(math.Abs(amount), 'f', 2, 64)
	intPart, frac := s[:len(s)-3], s[len(s)-3:]

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	b.WriteString(frac)
	return b.String()
}

// FormatEnum renders an enum value for display, e.g. "changes_requested" -> "CHANGES_REQUESTED"
func FormatEnum(v string) string {
	return strings.ToUpper(v)
}

// Truncate shortens s to MaxDisplayLength runes, appending "..." when cut
func Truncate(s string) string {
	r := []rune(s)
	if len(r) <= MaxDisplayLength {
		return s
	}
	return string(r[:MaxDisplayLength]) + "..."
}
