package domain

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Monetary amounts are fixed-point with two decimal places, carried internally
// as int64 cents. Decimal parsing happens only at the API boundary so no float
// arithmetic ever touches a balance.

var (
	centsFactor = decimal.NewFromInt(100)
	maxCents    = decimal.NewFromInt(math.MaxInt64)
)

// ParseAmount converts a 2-decimal string such as "100.00" into cents.
// More than two fraction digits is rejected rather than rounded; values whose
// cents do not fit in int64 are rejected rather than wrapped.
func ParseAmount(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if d.Exponent() < -2 {
		return 0, fmt.Errorf("amount %q has more than two decimal places", s)
	}
	cents := d.Mul(centsFactor)
	if !cents.IsInteger() {
		return 0, fmt.Errorf("amount %q has more than two decimal places", s)
	}
	if cents.Abs().GreaterThan(maxCents) {
		return 0, fmt.Errorf("amount %q is out of range", s)
	}
	return cents.IntPart(), nil
}

// FormatAmount renders cents as a 2-decimal string, e.g. 7050 -> "70.50".
func FormatAmount(cents int64) string {
	return decimal.NewFromInt(cents).Div(centsFactor).StringFixed(2)
}
