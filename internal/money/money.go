// Package money converts between integer minor units and their decimal
// display form. Balances are never stored or computed as floats.
package money

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Exp is the number of decimal places in one major unit.
const Exp = 2

// Format renders minor units as a fixed two-place decimal string, e.g. 1250 -> "12.50".
func Format(minor int64) string {
	return decimal.New(minor, -Exp).StringFixed(Exp)
}

var (
	maxMinor = decimal.NewFromInt(math.MaxInt64)
	minMinor = decimal.NewFromInt(math.MinInt64)
)

// Parse converts a decimal string such as "12.5" into minor units. More than
// two fractional digits is rejected rather than rounded.
func Parse(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	scaled := d.Shift(Exp)
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("parse amount %q: more than %d decimal places", s, Exp)
	}
	if scaled.GreaterThan(maxMinor) || scaled.LessThan(minMinor) {
		return 0, fmt.Errorf("parse amount %q: out of range", s)
	}
	return scaled.IntPart(), nil
}
