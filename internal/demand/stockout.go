package demand

import (
	"fmt"
	"math"

	"github.com/andresuchdata/salescast/backend-go/internal/domain"
	"github.com/andresuchdata/salescast/backend-go/internal/stats"
)

// AssessStockout evaluates stockout risk and reorder timing for one product
// given its current stock level and the supplier lead time in days. Series
// shorter than MinObservations cannot support the statistics, so the
// assessment degrades to a conservative "reorder now" default instead of
// failing.
func AssessStockout(records []domain.SalesRecord, brand, model string, currentStock, leadTime int) (*domain.StockoutAssessment, error) {
	if len(records) == 0 {
		return nil, domain.ErrEmptySeries
	}
	if currentStock < 0 {
		return nil, domain.NewInvalidInput("current_stock", "must not be negative, got %d", currentStock)
	}
	if leadTime <= 0 {
		leadTime = 7
	}

	dates, quantities := filterSeries(records, brand, model)
	if len(dates) == 0 {
		return nil, domain.ErrNoDataForSelector
	}

	if len(dates) < domain.MinObservations {
		// Too little history to size a safety stock; flag the product for
		// immediate attention instead of computing unstable statistics.
		return &domain.StockoutAssessment{
			Metrics: domain.StockoutMetrics{
				CurrentStock:      currentStock,
				AvgDailySales:     0,
				MaxDailySales:     0,
				SafetyStock:       0,
				ReorderPoint:      float64(currentStock),
				DaysUntilStockout: 0,
				WorstCaseDays:     0,
			},
			StockoutRisk:     domain.RiskHigh,
			StockProjections: []domain.StockProjection{},
			Alert:            true,
			Recommendation: domain.Recommendation{
				Status:  domain.RiskHigh,
				Message: "Not enough sales history to size a safety stock.",
				Action:  "Collect more sales data and review stock manually.",
			},
		}, nil
	}

	avg := stats.Mean(quantities)
	max := stats.Max(quantities)
	std := stats.StdDev(quantities)
	safety := 2 * std * math.Sqrt(float64(leadTime))
	reorder := avg*float64(leadTime) + safety

	days := math.Inf(1)
	if avg > 0 {
		days = float64(currentStock) / avg
	}
	worstDays := math.Inf(1)
	if max > 0 {
		worstDays = float64(currentStock) / max
	}

	// Falling below the reorder point is already critical even when the
	// days-until-stockout estimate alone would only say medium.
	risk := domain.RiskLow
	switch {
	case days <= float64(leadTime) || float64(currentStock) <= reorder:
		risk = domain.RiskHigh
	case days <= float64(2*leadTime):
		risk = domain.RiskMedium
	}

	projections := make([]domain.StockProjection, 0, 2*leadTime)
	last := dates[len(dates)-1]
	for i := 1; i <= 2*leadTime; i++ {
		projections = append(projections, domain.StockProjection{
			Date:           last.AddDate(0, 0, i).Format(domain.DateLayout),
			AvgCaseStock:   round2(math.Max(0, float64(currentStock)-avg*float64(i))),
			WorstCaseStock: round2(math.Max(0, float64(currentStock)-max*float64(i))),
		})
	}

	alert := float64(currentStock) <= reorder

	return &domain.StockoutAssessment{
		Metrics: domain.StockoutMetrics{
			CurrentStock:      currentStock,
			AvgDailySales:     round2(avg),
			MaxDailySales:     round2(max),
			SafetyStock:       round2(safety),
			ReorderPoint:      round2(reorder),
			DaysUntilStockout: domain.JSONFloat(round2(days)),
			WorstCaseDays:     domain.JSONFloat(round2(worstDays)),
		},
		StockoutRisk:     risk,
		StockProjections: projections,
		Alert:            alert,
		Recommendation:   recommend(risk, alert, float64(currentStock), avg, reorder, days, leadTime),
	}, nil
}

func recommend(risk string, alert bool, currentStock, avg, reorder, days float64, leadTime int) domain.Recommendation {
	if alert {
		msg := fmt.Sprintf("Stock has fallen to the reorder point (%.2f units).", reorder)
		if risk == domain.RiskHigh && !math.IsInf(days, 1) {
			msg = fmt.Sprintf("Stock is projected to run out in %.1f days at the current sales rate.", days)
		}
		return domain.Recommendation{
			Status:  risk,
			Message: msg,
			Action:  fmt.Sprintf("Order within %d days.", leadTime),
		}
	}

	if avg > 0 {
		untilReorder := (currentStock - reorder) / avg
		return domain.Recommendation{
			Status:  risk,
			Message: "Stock levels are healthy for the current sales rate.",
			Action:  fmt.Sprintf("Next reorder in ~%.0f days.", math.Max(0, untilReorder)),
		}
	}

	return domain.Recommendation{
		Status:  risk,
		Message: "No recent sales recorded; stock is not being consumed.",
		Action:  "No action needed.",
	}
}

func round2(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}
	return math.Round(v*100) / 100
}
