// Package pricing derives invoice totals, recipe costs, stock status labels and
// customer event dates from plain snapshots of shop entities. Nothing here
// touches storage or the network; every function is safe to call from any
// surface that needs the numbers.
package pricing

import (
	"math"

	"github.com/shopspring/decimal"
)

// DefaultCurrencySymbol prefixes every rendered amount.
const DefaultCurrencySymbol = "₹"

var hundred = decimal.NewFromInt(100)

// num converts a float into a decimal, treating NaN and infinities as zero so a
// bad input never poisons a sum.
func num(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// percentOf returns base × pct / 100.
func percentOf(base decimal.Decimal, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Div(hundred)
}

// RoundCents rounds half away from zero to two decimal places.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// FormatCurrency renders d with the default symbol and two decimals.
func FormatCurrency(d decimal.Decimal) string {
	return FormatCurrencyWith(DefaultCurrencySymbol, d)
}

func FormatCurrencyWith(symbol string, d decimal.Decimal) string {
	return symbol + d.StringFixed(2)
}

// Float64 is a convenience for response encoders that speak JSON numbers.
func Float64(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
