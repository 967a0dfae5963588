// Package period handles pay-period keys. A month key is "2006-01"; a cutoff
// key appends the cutoff code for semi-monthly runs ("2006-01 A") and is the
// bare month key for monthly runs.
package period

import (
	"fmt"
	"strings"
	"time"
)

const MonthLayout = "2006-01"

const (
	CutoffFirst   = "A"
	CutoffSecond  = "B"
	CutoffMonthly = "MONTHLY"
	CutoffSpecial = "SPECIAL"
)

func ValidCutoff(cutoff string) bool {
	switch cutoff {
	case CutoffFirst, CutoffSecond, CutoffMonthly, CutoffSpecial:
		return true
	}
	return false
}

func ParseMonth(key string) (time.Time, error) {
	month, err := time.Parse(MonthLayout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse month key %q: %w", key, err)
	}
	return month, nil
}

// Bounds returns the first and last calendar day of the month, both at
// midnight UTC.
func Bounds(month time.Time) (start, end time.Time) {
	start = time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, -1)
	return start, end
}

// PayDate is the date statutory tables are resolved against: mid-month for the
// first cutoff, end of month otherwise.
func PayDate(month time.Time, cutoff string) time.Time {
	start, end := Bounds(month)
	if cutoff == CutoffFirst {
		return start.AddDate(0, 0, 14)
	}
	return end
}

// Key builds the period key adjustments are filed under. Only the semi-monthly
// cutoffs get a suffix; monthly and special runs share the bare month key.
func Key(monthKey, cutoff string) string {
	switch cutoff {
	case CutoffMonthly, CutoffSpecial, "":
		return monthKey
	}
	return monthKey + " " + cutoff
}

// SplitKey separates a period key into its month and cutoff parts.
func SplitKey(key string) (monthKey, cutoff string) {
	if i := strings.IndexByte(key, ' '); i >= 0 {
		return key[:i], key[i+1:]
	}
	return key, CutoffMonthly
}
