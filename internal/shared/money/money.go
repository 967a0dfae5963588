package money

import "github.com/shopspring/decimal"

var (
	Zero    = decimal.Zero
	Hundred = decimal.NewFromInt(100)
)

// Round rounds to the nearest centavo, half away from zero. Applied once per
// computed amount, never on intermediate sums.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Clamp bounds d to [min, max].
func Clamp(d, min, max decimal.Decimal) decimal.Decimal {
	if d.LessThan(min) {
		return min
	}
	if d.GreaterThan(max) {
		return max
	}
	return d
}

// SplitHalf divides a monthly amount across two semi-monthly cutoffs. The
// first half is truncated at 2 decimals and the remainder goes to the second
// cutoff, so first + second always equals amount exactly.
func SplitHalf(amount decimal.Decimal) (first, second decimal.Decimal) {
	first = amount.Div(decimal.NewFromInt(2)).RoundDown(2)
	second = amount.Sub(first)
	return first, second
}

// FromFloat converts a float amount, rejecting NaN/Inf by returning ok=false.
func FromFloat(v float64) (decimal.Decimal, bool) {
	if v != v || v > 1e15 || v < -1e15 {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(v), true
}
