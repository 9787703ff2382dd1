package finance

import (
	"math"

	"github.com/shopspring/decimal"
)

var (
	half     = decimal.NewFromFloat(0.5)
	hundred  = decimal.NewFromInt(100)
	thousand = decimal.NewFromInt(1000)
	million  = decimal.NewFromInt(1_000_000)
)

// roundHalfUp rounds to the nearest integer, halves towards +Inf.
func roundHalfUp(d decimal.Decimal) decimal.Decimal {
	return d.Add(half).Floor()
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// FormatPercent renders "25.46%".
func FormatPercent(p decimal.Decimal) string {
	return p.StringFixed(2) + "%"
}

// FormatCompact renders an amount as "137.24k" below one million and "1.274mn" at or above.
func FormatCompact(amount decimal.Decimal) string {
	if amount.Abs().LessThan(million) {
		return amount.Div(thousand).StringFixed(2) + "k"
	}
	return amount.Div(million).StringFixed(3) + "mn"
}

// FormatValue prefixes FormatCompact with the currency code: "AED 137.24k".
func FormatValue(currency string, amount decimal.Decimal) string {
	return currency + " " + FormatCompact(amount)
}
