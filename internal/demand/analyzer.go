// Package demand implements the descriptive demand analytics and the
// stockout/reorder estimator. Both filter the raw records down to one
// product; the analyzer additionally runs the series through the feature
// engine so statistics are computed over the densified, gap-filled history.
package demand

import (
	"sort"
	"time"

	"github.com/andresuchdata/salescast/backend-go/internal/domain"
	"github.com/andresuchdata/salescast/backend-go/internal/stats"
	"github.com/andresuchdata/salescast/backend-go/internal/timeseries"
)

// movingAverageTail is how many trailing rows of the moving-average series the
// analysis returns; enough for the dashboard sparkline without shipping the
// whole history.
const movingAverageTail = 10

// Analyze computes descriptive statistics and the moving-average tail for one
// product's sales series.
func Analyze(records []domain.SalesRecord, brand, model string) (*domain.DemandStats, error) {
	if len(records) == 0 {
		return nil, domain.ErrEmptySeries
	}

	filtered := make([]domain.SalesRecord, 0, len(records))
	for _, r := range records {
		if r.Brand == brand && r.Model == model {
			filtered = append(filtered, r)
		}
	}
	if len(filtered) == 0 {
		return nil, domain.ErrNoDataForSelector
	}

	rows, err := timeseries.Engineer(filtered)
	if err != nil {
		return nil, err
	}

	observed := make(map[string]struct{}, len(filtered))
	for _, r := range filtered {
		observed[r.Date.UTC().Truncate(24*time.Hour).Format(domain.DateLayout)] = struct{}{}
	}

	quantities := make([]float64, len(rows))
	for i, row := range rows {
		quantities[i] = row.QuantitySold
	}

	start := len(rows) - movingAverageTail
	if start < 0 {
		start = 0
	}
	tail := make([]domain.MovingAveragePoint, 0, len(rows)-start)
	for i := start; i < len(rows); i++ {
		tail = append(tail, domain.MovingAveragePoint{
			Date:  rows[i].Date.Format(domain.DateLayout),
			Sales: round2(rows[i].QuantitySold),
			MA7:   round2(rows[i].RollingMean7),
			MA30:  round2(rows[i].RollingMean30),
		})
	}

	return &domain.DemandStats{
		Average:        round2(stats.Mean(quantities)),
		Median:         round2(stats.Median(quantities)),
		Max:            round2(stats.Max(quantities)),
		Min:            round2(stats.Min(quantities)),
		StdDev:         round2(stats.StdDev(quantities)),
		Total:          round2(stats.Sum(quantities)),
		ObservedDays:   len(observed),
		AnalyzedDays:   len(rows),
		MovingAverages: tail,
	}, nil
}

// filterSeries keeps records matching the selector, sums duplicate dates and
// returns the series in date order. The stockout estimator works off the raw
// observed days rather than the densified feature rows.
func filterSeries(records []domain.SalesRecord, brand, model string) ([]time.Time, []float64) {
	byDay := make(map[time.Time]float64)
	for _, r := range records {
		if r.Brand != brand || r.Model != model {
			continue
		}
		day := r.Date.UTC().Truncate(24 * time.Hour)
		byDay[day] += r.QuantitySold
	}
	dates := make([]time.Time, 0, len(byDay))
	for d := range byDay {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	quantities := make([]float64, len(dates))
	for i, d := range dates {
		quantities[i] = byDay[d]
	}
	return dates, quantities
}
