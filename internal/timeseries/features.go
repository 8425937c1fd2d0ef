// Package timeseries turns raw daily sales records into the engineered
// feature rows the forecaster and analyzers consume. The pipeline densifies
// each product's series to one row per calendar day, fills quantity gaps,
// and derives calendar, rolling-window, trend, cyclical and lag signals.
package timeseries

import (
	"math"
	"sort"
	"time"

	"github.com/andresuchdata/salescast/backend-go/internal/domain"
)

var lagDays = []int{1, 3, 7, 14, 30}

// Engineer builds feature rows from raw sales records. Records are grouped by
// (brand, model); each group is densified to daily frequency over its own date
// range before features are computed, so gaps in the source data never distort
// the rolling windows. Output is ordered by brand, model, then date.
func Engineer(records []domain.SalesRecord) ([]domain.FeatureRow, error) {
	if len(records) == 0 {
		return nil, domain.ErrEmptySeries
	}

	groups := make(map[domain.Selector][]domain.SalesRecord)
	var order []domain.Selector
	for _, r := range records {
		sel := domain.Selector{Brand: r.Brand, Model: r.Model}
		if _, ok := groups[sel]; !ok {
			order = append(order, sel)
		}
		groups[sel] = append(groups[sel], r)
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].Brand != order[j].Brand {
			return order[i].Brand < order[j].Brand
		}
		return order[i].Model < order[j].Model
	})

	var out []domain.FeatureRow
	for _, sel := range order {
		out = append(out, engineerSeries(sel, groups[sel])...)
	}
	return out, nil
}

// engineerSeries computes features for a single product's records.
func engineerSeries(sel domain.Selector, records []domain.SalesRecord) []domain.FeatureRow {
	dates, quantities := densify(records)
	n := len(dates)

	mean7 := CenteredRollingMean(quantities, 7)
	mean30 := CenteredRollingMean(quantities, 30)
	std7 := CenteredRollingStd(quantities, 7)
	std30 := CenteredRollingStd(quantities, 30)
	trend := normalizedTrend(n)

	rows := make([]domain.FeatureRow, n)
	for i := 0; i < n; i++ {
		t := dates[i]
		dow := (int(t.Weekday()) + 6) % 7
		doy := t.YearDay()
		month := int(t.Month())

		row := domain.FeatureRow{
			Date:         t,
			Brand:        sel.Brand,
			Model:        sel.Model,
			QuantitySold: quantities[i],

			DayOfYear: doy,
			Month:     month,
			DayOfWeek: dow,
			IsWeekend: dow >= 5,
			IsHoliday: IsHoliday(t),

			RollingMean7:  mean7[i],
			RollingMean30: mean30[i],
			RollingStd7:   std7[i],
			RollingStd30:  std30[i],

			TrendNormalized: trend[i],

			MonthSin: math.Sin(2 * math.Pi * float64(month) / 12),
			MonthCos: math.Cos(2 * math.Pi * float64(month) / 12),
			DaySin:   math.Sin(2 * math.Pi * float64(doy) / 365),
			DayCos:   math.Cos(2 * math.Pi * float64(doy) / 365),
		}

		lags := [5]float64{}
		for li, lag := range lagDays {
			if i-lag >= 0 {
				lags[li] = quantities[i-lag]
			} else {
				// Not enough history for this lag; the local rolling
				// mean is the least-surprising stand-in.
				lags[li] = mean7[i]
			}
		}
		row.Lag1, row.Lag3, row.Lag7, row.Lag14, row.Lag30 = lags[0], lags[1], lags[2], lags[3], lags[4]

		rows[i] = row
	}
	return rows
}

// densify sorts the records, sums duplicate dates, and expands the series to
// one value per day between the first and last observation. Missing days are
// filled by linear interpolation between the surrounding observations; any
// leading or trailing gaps copy the nearest observed value.
func densify(records []domain.SalesRecord) ([]time.Time, []float64) {
	byDay := make(map[string]float64)
	var minDate, maxDate time.Time
	for i, r := range records {
		day := r.Date.UTC().Truncate(24 * time.Hour)
		key := day.Format(domain.DateLayout)
		byDay[key] += r.QuantitySold
		if i == 0 || day.Before(minDate) {
			minDate = day
		}
		if i == 0 || day.After(maxDate) {
			maxDate = day
		}
	}

	n := int(maxDate.Sub(minDate).Hours()/24) + 1
	dates := make([]time.Time, n)
	quantities := make([]float64, n)
	observed := make([]bool, n)
	for i := 0; i < n; i++ {
		d := minDate.AddDate(0, 0, i)
		dates[i] = d
		if q, ok := byDay[d.Format(domain.DateLayout)]; ok {
			quantities[i] = q
			observed[i] = true
		}
	}

	interpolate(quantities, observed)
	return dates, quantities
}

// interpolate fills unobserved positions in place. Interior gaps are linearly
// interpolated; edges take the nearest observed value. The caller guarantees
// at least one observed position.
func interpolate(values []float64, observed []bool) {
	n := len(values)
	prev := -1
	for i := 0; i < n; i++ {
		if !observed[i] {
			continue
		}
		if prev == -1 && i > 0 {
			for j := 0; j < i; j++ {
				values[j] = values[i]
			}
		} else if prev != -1 && i-prev > 1 {
			step := (values[i] - values[prev]) / float64(i-prev)
			for j := prev + 1; j < i; j++ {
				values[j] = values[prev] + step*float64(j-prev)
			}
		}
		prev = i
	}
	if prev != -1 {
		for j := prev + 1; j < n; j++ {
			values[j] = values[prev]
		}
	}
}

// normalizedTrend returns the z-scored row index, giving the model a bounded
// monotone signal for long-run growth or decline.
func normalizedTrend(n int) []float64 {
	out := make([]float64, n)
	if n < 2 {
		return out
	}
	mean := float64(n-1) / 2
	var ss float64
	for i := 0; i < n; i++ {
		d := float64(i) - mean
		ss += d * d
	}
	std := math.Sqrt(ss / float64(n-1))
	for i := 0; i < n; i++ {
		out[i] = (float64(i) - mean) / std
	}
	return out
}
