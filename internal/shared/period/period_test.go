package period_test

import (
	"testing"
	"time"

	"go-payroll/internal/shared/period"

	"github.com/stretchr/testify/assert"
)

func TestKeyAndSplitKey(t *testing.T) {
	assert.Equal(t, "2025-06 A", period.Key("2025-06", period.CutoffFirst))
	assert.Equal(t, "2025-06", period.Key("2025-06", period.CutoffMonthly))
	// Special runs read the same adjustment entries as the monthly run, so
	// their key must be the bare month too.
	assert.Equal(t, "2025-06", period.Key("2025-06", period.CutoffSpecial))

	month, cutoff := period.SplitKey("2025-06 B")
	assert.Equal(t, "2025-06", month)
	assert.Equal(t, period.CutoffSecond, cutoff)

	month, cutoff = period.SplitKey("2025-06")
	assert.Equal(t, "2025-06", month)
	assert.Equal(t, period.CutoffMonthly, cutoff)
}

func TestBounds(t *testing.T) {
	month, err := period.ParseMonth("2025-02")
	assert.NoError(t, err)

	start, end := period.Bounds(month)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), end)
}

func TestPayDate(t *testing.T) {
	month, _ := period.ParseMonth("2025-06")

	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), period.PayDate(month, period.CutoffFirst))
	assert.Equal(t, time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), period.PayDate(month, period.CutoffSecond))
	assert.Equal(t, time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), period.PayDate(month, period.CutoffMonthly))
}

func TestParseMonthRejectsGarbage(t *testing.T) {
	_, err := period.ParseMonth("June 2025")
	assert.Error(t, err)
}
