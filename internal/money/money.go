package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// FormatEUR formats an amount the Italian way, e.g. "1.234,56 €".
// A nil amount renders as an em dash.
func FormatEUR(v *float64) string {
	if v == nil {
		return "—"
	}
	d := decimal.NewFromFloat(*v).Round(2)
	neg := d.IsNegative()
	s := d.Abs().StringFixed(2)

	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	b.Grow(len(s) + len(intPart)/3 + 4)
	if neg {
		b.WriteByte('-')
	}
	// Insert separators from the left.
	rem := len(intPart) % 3
	if rem == 0 {
		rem = 3
	}
	b.WriteString(intPart[:rem])
	for i := rem; i < len(intPart); i += 3 {
		b.WriteByte('.')
		b.WriteString(intPart[i : i+3])
	}
	b.WriteByte(',')
	b.WriteString(frac)
	b.WriteString(" €")
	return b.String()
}

// FormatPlain formats an amount with two decimals and a dot separator,
// suitable for CSV cells. Nil renders as an empty string.
func FormatPlain(v *float64) string {
	if v == nil {
		return ""
	}
	return decimal.NewFromFloat(*v).StringFixed(2)
}

// Ptr returns a pointer to v.
func Ptr(v float64) *float64 { return &v }
