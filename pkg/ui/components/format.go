package components

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// FormatPrice keeps more digits for sub-dollar tokens.
func FormatPrice(d decimal.Decimal) string {
	if d.Abs().LessThan(one) {
		return "$" + d.StringFixed(6)
	}
	return "$" + d.StringFixed(4)
}

// FormatUSD renders a signed dollar amount with cents.
func FormatUSD(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Abs().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

// FormatPercent renders a signed percentage.
func FormatPercent(d decimal.Decimal) string {
	return fmt.Sprintf("%+.2f%%", d.InexactFloat64())
}

// FormatCompact abbreviates large USD figures such as volume.
func FormatCompact(d decimal.Decimal) string {
	f := d.InexactFloat64()
	switch {
	case f >= 1e9:
		return fmt.Sprintf("$%.2fB", f/1e9)
	case f >= 1e6:
		return fmt.Sprintf("$%.2fM", f/1e6)
	case f >= 1e3:
		return fmt.Sprintf("$%.1fK", f/1e3)
	default:
		return fmt.Sprintf("$%.0f", f)
	}
}
