// Package money pins the currency-unit conversions the payment processor
// needs: unit prices go out in integer minor units (cents), totals travel as
// two-decimal strings in session metadata.
package money

import (
	"math"
	"strconv"
)

// ToCents converts a dollar amount to integer cents, rounding half away
// from zero. The rounding mode is part of the checkout contract and is
// covered by tests, do not swap it for banker's rounding.
func ToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FormatAmount renders a total with exactly two decimal places, the format
// the webhook reads back from session metadata.
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

// ParseAmount is the inverse of FormatAmount.
func ParseAmount(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}
