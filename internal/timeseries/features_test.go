package timeseries

import (
	"math"
	"testing"
	"time"

	"github.com/andresuchdata/salescast/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func record(date string, qty float64) domain.SalesRecord {
	return domain.SalesRecord{Date: day(date), Brand: "Acme", Model: "X1", QuantitySold: qty}
}

func TestEngineerEmptyInput(t *testing.T) {
	_, err := Engineer(nil)
	assert.ErrorIs(t, err, domain.ErrEmptySeries)
}

func TestEngineerDensifiesDateRange(t *testing.T) {
	rows, err := Engineer([]domain.SalesRecord{
		record("2024-03-01", 2),
		record("2024-03-05", 6),
		record("2024-03-03", 4),
	})
	require.NoError(t, err)

	// One row per calendar day in the inclusive range, ascending.
	require.Len(t, rows, 5)
	for i, row := range rows {
		assert.Equal(t, day("2024-03-01").AddDate(0, 0, i), row.Date)
		assert.Equal(t, "Acme", row.Brand)
		assert.Equal(t, "X1", row.Model)
	}
}

func TestEngineerInterpolatesGaps(t *testing.T) {
	rows, err := Engineer([]domain.SalesRecord{
		record("2024-03-01", 2),
		record("2024-03-03", 4),
		record("2024-03-05", 6),
	})
	require.NoError(t, err)
	require.Len(t, rows, 5)

	assert.Equal(t, 2.0, rows[0].QuantitySold)
	assert.Equal(t, 3.0, rows[1].QuantitySold)
	assert.Equal(t, 4.0, rows[2].QuantitySold)
	assert.Equal(t, 5.0, rows[3].QuantitySold)
	assert.Equal(t, 6.0, rows[4].QuantitySold)
}

func TestEngineerSumsDuplicateDates(t *testing.T) {
	rows, err := Engineer([]domain.SalesRecord{
		record("2024-03-01", 2),
		record("2024-03-01", 3),
		record("2024-03-02", 1),
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 5.0, rows[0].QuantitySold)
}

func TestEngineerCalendarFeatures(t *testing.T) {
	rows, err := Engineer([]domain.SalesRecord{
		record("2024-01-01", 1), // Monday, holiday
		record("2024-01-06", 2), // Saturday
		record("2024-01-07", 3), // Sunday
	})
	require.NoError(t, err)
	require.Len(t, rows, 7)

	monday := rows[0]
	assert.Equal(t, 0, monday.DayOfWeek)
	assert.False(t, monday.IsWeekend)
	assert.True(t, monday.IsHoliday)
	assert.Equal(t, 1, monday.DayOfYear)
	assert.Equal(t, 1, monday.Month)

	saturday := rows[5]
	assert.Equal(t, 5, saturday.DayOfWeek)
	assert.True(t, saturday.IsWeekend)
	assert.False(t, saturday.IsHoliday)

	sunday := rows[6]
	assert.Equal(t, 6, sunday.DayOfWeek)
	assert.True(t, sunday.IsWeekend)
}

func TestEngineerCyclicalEncoding(t *testing.T) {
	rows, err := Engineer([]domain.SalesRecord{record("2024-06-15", 5)})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.InDelta(t, math.Sin(2*math.Pi*6/12), row.MonthSin, 1e-12)
	assert.InDelta(t, math.Cos(2*math.Pi*6/12), row.MonthCos, 1e-12)
	assert.InDelta(t, math.Sin(2*math.Pi*float64(row.DayOfYear)/365), row.DaySin, 1e-12)
	assert.InDelta(t, math.Cos(2*math.Pi*float64(row.DayOfYear)/365), row.DayCos, 1e-12)
}

func TestEngineerLagFallback(t *testing.T) {
	rows, err := Engineer([]domain.SalesRecord{
		record("2024-03-01", 2),
		record("2024-03-02", 4),
		record("2024-03-03", 6),
	})
	require.NoError(t, err)

	// Leading rows have no true lag history, so lags fall back to the
	// 7-day rolling mean at the same index.
	first := rows[0]
	assert.Equal(t, first.RollingMean7, first.Lag1)
	assert.Equal(t, first.RollingMean7, first.Lag30)

	// Once history exists the true lagged value is used.
	assert.Equal(t, 2.0, rows[1].Lag1)
	assert.Equal(t, 4.0, rows[2].Lag1)
}

func TestEngineerNoMissingValues(t *testing.T) {
	rows, err := Engineer([]domain.SalesRecord{
		record("2024-03-01", 2),
		record("2024-03-10", 4),
	})
	require.NoError(t, err)
	require.Len(t, rows, 10)

	for _, row := range rows {
		for _, v := range []float64{
			row.QuantitySold,
			row.RollingMean7, row.RollingMean30,
			row.RollingStd7, row.RollingStd30,
			row.TrendNormalized,
			row.MonthSin, row.MonthCos, row.DaySin, row.DayCos,
			row.Lag1, row.Lag3, row.Lag7, row.Lag14, row.Lag30,
		} {
			assert.False(t, math.IsNaN(v), "row %s has NaN", row.Date)
			assert.False(t, math.IsInf(v, 0), "row %s has Inf", row.Date)
		}
	}
}

func TestEngineerTrendNormalization(t *testing.T) {
	rows, err := Engineer([]domain.SalesRecord{
		record("2024-03-01", 1),
		record("2024-03-05", 5),
	})
	require.NoError(t, err)
	require.Len(t, rows, 5)

	// Trend is symmetric around the middle row and zero there.
	assert.InDelta(t, 0, rows[2].TrendNormalized, 1e-12)
	assert.InDelta(t, -rows[0].TrendNormalized, rows[4].TrendNormalized, 1e-12)
	assert.Less(t, rows[0].TrendNormalized, rows[4].TrendNormalized)
}

func TestEngineerSingleRowTrendIsZero(t *testing.T) {
	rows, err := Engineer([]domain.SalesRecord{record("2024-03-01", 1)})
	require.NoError(t, err)
	assert.Equal(t, 0.0, rows[0].TrendNormalized)
}

func TestEngineerGroupsBySelector(t *testing.T) {
	rows, err := Engineer([]domain.SalesRecord{
		{Date: day("2024-03-02"), Brand: "Zenith", Model: "Z9", QuantitySold: 1},
		{Date: day("2024-03-01"), Brand: "Acme", Model: "X1", QuantitySold: 2},
		{Date: day("2024-03-03"), Brand: "Acme", Model: "X1", QuantitySold: 3},
	})
	require.NoError(t, err)
	require.Len(t, rows, 4)

	// Output ordered by brand, model, then date; each group densified over
	// its own range only.
	assert.Equal(t, "Acme", rows[0].Brand)
	assert.Equal(t, "Acme", rows[2].Brand)
	assert.Equal(t, "Zenith", rows[3].Brand)
}
