// Package forecast implements the sales forecaster: a deterministic
// gradient-boosted regression model per product, a model cache that fits each
// product at most once, and the smoothing/bounding pipeline that turns raw
// model output into the published forecast.
package forecast

import (
	"math"
	"time"

	"github.com/andresuchdata/salescast/backend-go/internal/domain"
	"github.com/andresuchdata/salescast/backend-go/internal/stats"
	"github.com/andresuchdata/salescast/backend-go/internal/timeseries"
)

// Params are the boosting and smoothing tunables, normally sourced from
// config.ForecastConfig.
type Params struct {
	Estimators   int
	LearningRate float64
	MaxDepth     int
	Smoothing    float64
	HorizonDays  int
}

// Forecaster produces per-product daily sales forecasts. Safe for concurrent
// use; per-product state lives in the model cache.
type Forecaster struct {
	params Params
	cache  *ModelCache
}

// NewForecaster builds a forecaster around the given cache.
func NewForecaster(params Params, cache *ModelCache) *Forecaster {
	return &Forecaster{params: params, cache: cache}
}

// Cache exposes the model cache so ingestion can invalidate refitted products.
func (f *Forecaster) Cache() *ModelCache {
	return f.cache
}

// Forecast predicts the next horizon days of sales for one product. The first
// call for a selector fits a model; later calls reuse it and blend the new raw
// predictions into the previous published forecast, so repeated requests drift
// smoothly instead of jumping.
func (f *Forecaster) Forecast(records []domain.SalesRecord, brand, model string, horizon int) (*domain.ForecastResult, error) {
	if len(records) == 0 {
		return nil, domain.ErrEmptySeries
	}
	if horizon <= 0 {
		horizon = f.params.HorizonDays
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
	if len(filtered) < domain.MinObservations {
		return nil, domain.ErrInsufficientHistory
	}

	rows, err := timeseries.Engineer(filtered)
	if err != nil {
		return nil, err
	}

	quantities := make([]float64, len(rows))
	for i, row := range rows {
		quantities[i] = row.QuantitySold
	}
	mean := stats.Mean(quantities)
	result := &domain.ForecastResult{
		BaselineStats: domain.BaselineStats{
			Mean:       round2(mean),
			RecentMean: round2(tailMean(quantities, 30)),
		},
	}

	X := make([][]float64, len(rows))
	for i, row := range rows {
		X[i] = featureVector(row.Date, row.RollingMean7, row.RollingMean30)
	}

	last := rows[len(rows)-1]
	futureDates := futureRange(last.Date, horizon)
	// No future actuals exist, so the moving-average features are frozen at
	// the trailing 7- and 30-day means of the observed series.
	frozen7 := tailMean(quantities, 7)
	frozen30 := tailMean(quantities, 30)
	futureX := make([][]float64, horizon)
	for i, d := range futureDates {
		futureX[i] = featureVector(d, frozen7, frozen30)
	}

	entry := f.cache.Entry(Key(brand, model))
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.model == nil {
		m := NewGBM(f.params.Estimators, f.params.LearningRate, f.params.MaxDepth)
		if err := m.Fit(X, quantities); err != nil {
			return nil, err
		}
		entry.model = m
		entry.fittedAt = time.Now().UTC()
		entry.basePreds = m.Predict(futureX)
	} else if len(entry.basePreds) != horizon {
		// Horizon changed since the model was fitted. Re-predict with the
		// cached model rather than refitting.
		entry.basePreds = entry.model.Predict(futureX)
	}

	raw := append([]float64(nil), entry.basePreds...)
	smoothed := smooth(entry.lastSmoothed, raw, f.params.Smoothing)

	lower := math.Max(1, 0.5*mean)
	upper := 2 * mean
	factors := dayOfWeekFactors(rows, mean)

	forecast := make([]domain.ForecastEntry, len(smoothed))
	published := make([]float64, len(smoothed))
	for i, v := range smoothed {
		v = clamp(v, lower, upper)
		dow := (int(futureDates[i].Weekday()) + 6) % 7
		if factor, ok := factors[dow]; ok {
			v *= factor
		}
		v = clamp(v, lower, upper)
		v = round2(v)
		published[i] = v
		forecast[i] = domain.ForecastEntry{
			Date:           futureDates[i].Format(domain.DateLayout),
			PredictedSales: v,
		}
	}
	entry.lastSmoothed = published

	result.Forecast = forecast
	return result, nil
}

func featureVector(d time.Time, ma7, ma30 float64) []float64 {
	dow := (int(d.Weekday()) + 6) % 7
	weekend := 0.0
	if dow >= 5 {
		weekend = 1.0
	}
	return []float64{float64(dow), float64(d.Month()), weekend, ma7, ma30}
}

// tailMean returns the mean of the last n values, or of the whole series when
// it is shorter than n.
func tailMean(values []float64, n int) float64 {
	if len(values) > n {
		values = values[len(values)-n:]
	}
	return stats.Mean(values)
}

func futureRange(last time.Time, horizon int) []time.Time {
	out := make([]time.Time, horizon)
	for i := range out {
		out[i] = last.AddDate(0, 0, i+1)
	}
	return out
}

// smooth blends the new raw predictions into the previously published
// forecast with weight alpha on the old values. With no previous forecast the
// raw predictions pass through unchanged.
func smooth(previous, raw []float64, alpha float64) []float64 {
	out := append([]float64(nil), raw...)
	n := len(previous)
	if n > len(raw) {
		n = len(raw)
	}
	for i := 0; i < n; i++ {
		out[i] = alpha*previous[i] + (1-alpha)*raw[i]
	}
	return out
}

// dayOfWeekFactors computes the mean sales per weekday relative to the
// overall mean. Weekdays absent from the history get no factor and leave the
// prediction unchanged.
func dayOfWeekFactors(rows []domain.FeatureRow, mean float64) map[int]float64 {
	if mean == 0 {
		return nil
	}
	sums := make(map[int]float64)
	counts := make(map[int]int)
	for _, row := range rows {
		sums[row.DayOfWeek] += row.QuantitySold
		counts[row.DayOfWeek]++
	}
	factors := make(map[int]float64, len(sums))
	for dow, sum := range sums {
		factors[dow] = sum / float64(counts[dow]) / mean
	}
	return factors
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
