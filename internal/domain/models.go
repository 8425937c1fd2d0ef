// backend-go/internal/domain/models.go
package domain

import (
	"encoding/json"
	"math"
	"time"
)

// DateLayout is the wire format for calendar dates in requests and responses.
const DateLayout = "2006-01-02"

// SalesRecord is one day of sales for a product. (date, brand, model) is
// unique within a series; callers aggregate duplicates before handing the
// series to the analytics core.
type SalesRecord struct {
	Date         time.Time `json:"date" db:"date"`
	Brand        string    `json:"brand" db:"brand"`
	Model        string    `json:"model" db:"model"`
	QuantitySold float64   `json:"quantity_sold" db:"quantity_sold"`
}

// Selector identifies one product's sales series.
type Selector struct {
	Brand string `json:"brand" db:"brand"`
	Model string `json:"model" db:"model"`
}

// FeatureRow is a SalesRecord augmented with the engineered signals the
// forecaster and analyzers consume. Every field is defined after feature
// engineering; lag values at the start of the series fall back to the 7-day
// rolling mean.
type FeatureRow struct {
	Date         time.Time
	Brand        string
	Model        string
	QuantitySold float64

	DayOfYear int
	Month     int
	DayOfWeek int // Monday = 0 .. Sunday = 6
	IsWeekend bool
	IsHoliday bool

	RollingMean7  float64
	RollingMean30 float64
	RollingStd7   float64
	RollingStd30  float64

	TrendNormalized float64

	MonthSin float64
	MonthCos float64
	DaySin   float64
	DayCos   float64

	Lag1  float64
	Lag3  float64
	Lag7  float64
	Lag14 float64
	Lag30 float64
}

// ForecastEntry is one predicted day.
type ForecastEntry struct {
	Date           string  `json:"date"`
	PredictedSales float64 `json:"predicted_sales"`
}

// BaselineStats carries the historical means the forecast was anchored to.
type BaselineStats struct {
	Mean       float64 `json:"mean"`
	RecentMean float64 `json:"recent_mean"`
}

// ForecastResult is the forecaster output for one selector.
type ForecastResult struct {
	Forecast      []ForecastEntry `json:"forecast"`
	BaselineStats BaselineStats   `json:"baseline_stats"`
}

// MovingAveragePoint is one row of the demand analyzer's moving-average tail.
type MovingAveragePoint struct {
	Date  string  `json:"date"`
	Sales float64 `json:"sales"`
	MA7   float64 `json:"ma7"`
	MA30  float64 `json:"ma30"`
}

// DemandStats holds descriptive statistics over a filtered sales series.
// Statistics run over the gap-filled daily series; ObservedDays and
// AnalyzedDays let consumers tell how much of that series was interpolated.
type DemandStats struct {
	Average        float64              `json:"average_sales"`
	Median         float64              `json:"median_sales"`
	Max            float64              `json:"maximum_sales"`
	Min            float64              `json:"minimum_sales"`
	StdDev         float64              `json:"standard_deviation"`
	Total          float64              `json:"total_sales"`
	ObservedDays   int                  `json:"observed_days"`
	AnalyzedDays   int                  `json:"analyzed_days"`
	MovingAverages []MovingAveragePoint `json:"moving_averages"`
}

// JSONFloat is a float64 that serializes non-finite values as null, so that
// "days until stockout = infinity" survives the JSON boundary. The core keeps
// native floats; only the wire representation is adjusted.
type JSONFloat float64

func (f JSONFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// UnmarshalJSON maps null back to +Inf so assessments decoded from the result
// cache keep "never runs out" semantics instead of collapsing to zero days.
func (f *JSONFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = JSONFloat(math.Inf(1))
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = JSONFloat(v)
	return nil
}

// StockoutMetrics are the derived inventory numbers for one assessment.
type StockoutMetrics struct {
	CurrentStock      int       `json:"current_stock"`
	AvgDailySales     float64   `json:"avg_daily_sales"`
	MaxDailySales     float64   `json:"max_daily_sales"`
	SafetyStock       float64   `json:"safety_stock"`
	ReorderPoint      float64   `json:"reorder_point"`
	DaysUntilStockout JSONFloat `json:"days_until_stockout"`
	WorstCaseDays     JSONFloat `json:"worst_case_days"`
}

// StockProjection is the expected remaining stock for one future day.
type StockProjection struct {
	Date           string  `json:"date"`
	AvgCaseStock   float64 `json:"avg_case_stock"`
	WorstCaseStock float64 `json:"worst_case_stock"`
}

// Recommendation is the human-readable reorder advice.
type Recommendation struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Action  string `json:"action"`
}

// Risk levels for a stockout assessment.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// StockoutAssessment is the full stockout/reorder evaluation for a selector.
type StockoutAssessment struct {
	Metrics          StockoutMetrics   `json:"metrics"`
	StockoutRisk     string            `json:"stockout_risk"`
	StockProjections []StockProjection `json:"stock_projections"`
	Alert            bool              `json:"alert"`
	Recommendation   Recommendation    `json:"recommendation"`
}
