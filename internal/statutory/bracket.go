package statutory

import (
	"sort"

	statutoryerrors "go-payroll/internal/statutory/errors"

	"github.com/shopspring/decimal"
)

// BracketFor returns the bracket whose [min, max) range contains the
// compensation. Values below the lowest range clamp to the first bracket,
// values past the highest bounded range clamp to the last one. Only an empty
// table fails.
func BracketFor(brackets []ContributionBracket, compensation decimal.Decimal) (ContributionBracket, error) {
	if len(brackets) == 0 {
		return ContributionBracket{}, statutoryerrors.ErrNoBracketMatch
	}

	for _, b := range brackets {
		if compensation.LessThan(b.CompensationMin) {
			continue
		}
		if b.CompensationMax == nil || compensation.LessThan(*b.CompensationMax) {
			return b, nil
		}
	}

	if compensation.LessThan(brackets[0].CompensationMin) {
		return brackets[0], nil
	}
	return brackets[len(brackets)-1], nil
}

// TaxBracketFor selects the highest bracket whose threshold does not exceed
// taxable income. Income below the lowest threshold owes nothing.
func TaxBracketFor(brackets []TaxBracket, taxable decimal.Decimal) (TaxBracket, bool) {
	var (
		matched TaxBracket
		found   bool
	)
	for _, b := range brackets {
		if b.Threshold.LessThanOrEqual(taxable) {
			if !found || b.Threshold.GreaterThan(matched.Threshold) {
				matched = b
				found = true
			}
		}
	}
	return matched, found
}

// ValidateBrackets rejects malformed tables at load time: ranges must be
// sorted, contiguous (next min equals previous max) and non-overlapping, and
// only the final row may leave its upper bound open.
func ValidateBrackets(brackets []ContributionBracket) error {
	if len(brackets) == 0 {
		return statutoryerrors.ErrNoBracketMatch
	}

	sorted := make([]ContributionBracket, len(brackets))
	copy(sorted, brackets)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CompensationMin.LessThan(sorted[j].CompensationMin)
	})

	for i, b := range sorted {
		last := i == len(sorted)-1
		if b.CompensationMax == nil {
			if !last {
				return statutoryerrors.ErrBracketsNotContiguous
			}
			continue
		}
		if b.CompensationMax.LessThanOrEqual(b.CompensationMin) {
			return statutoryerrors.ErrBracketsNotContiguous
		}
		if last {
			return statutoryerrors.ErrBracketsUnbounded
		}
		if !sorted[i+1].CompensationMin.Equal(*b.CompensationMax) {
			return statutoryerrors.ErrBracketsNotContiguous
		}
	}

	return nil
}
