package demand

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/andresuchdata/salescast/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssessStockoutEmptyInput(t *testing.T) {
	_, err := AssessStockout(nil, "Acme", "X1", 100, 7)
	assert.ErrorIs(t, err, domain.ErrEmptySeries)
}

func TestAssessStockoutNoDataForSelector(t *testing.T) {
	records := series("Acme", "X1", "2024-03-01", 1, 2, 3)
	_, err := AssessStockout(records, "Zenith", "Z9", 100, 7)
	assert.ErrorIs(t, err, domain.ErrNoDataForSelector)
}

func TestAssessStockoutNegativeStock(t *testing.T) {
	records := series("Acme", "X1", "2024-03-01", 1, 2, 3)
	_, err := AssessStockout(records, "Acme", "X1", -1, 7)
	assert.True(t, domain.IsInvalidInput(err))
}

func TestAssessStockoutFormulas(t *testing.T) {
	// avg=10, sample std=2, lead time 7:
	// safety = 2*2*sqrt(7) ~ 10.58, reorder = 70 + safety ~ 80.58.
	records := series("Acme", "X1", "2024-03-01", 8, 10, 12)
	assessment, err := AssessStockout(records, "Acme", "X1", 75, 7)
	require.NoError(t, err)

	m := assessment.Metrics
	assert.Equal(t, 75, m.CurrentStock)
	assert.Equal(t, 10.0, m.AvgDailySales)
	assert.Equal(t, 12.0, m.MaxDailySales)
	assert.InDelta(t, 10.58, m.SafetyStock, 0.01)
	assert.InDelta(t, 80.58, m.ReorderPoint, 0.01)
	assert.InDelta(t, 7.5, float64(m.DaysUntilStockout), 0.01)
	assert.InDelta(t, 6.25, float64(m.WorstCaseDays), 0.01)

	// 75 is below the reorder point, so risk escalates to high with an
	// alert even though the stock would last past the lead time.
	assert.Equal(t, domain.RiskHigh, assessment.StockoutRisk)
	assert.True(t, assessment.Alert)
}

func TestAssessStockoutRiskLevels(t *testing.T) {
	records := series("Acme", "X1", "2024-03-01", 10, 10, 10, 10, 10, 10, 10)

	high, err := AssessStockout(records, "Acme", "X1", 50, 7)
	require.NoError(t, err)
	assert.Equal(t, domain.RiskHigh, high.StockoutRisk)

	medium, err := AssessStockout(records, "Acme", "X1", 120, 7)
	require.NoError(t, err)
	assert.Equal(t, domain.RiskMedium, medium.StockoutRisk)

	low, err := AssessStockout(records, "Acme", "X1", 500, 7)
	require.NoError(t, err)
	assert.Equal(t, domain.RiskLow, low.StockoutRisk)
	assert.False(t, low.Alert)
}

func TestAssessStockoutInsufficientHistoryDefaults(t *testing.T) {
	records := series("Acme", "X1", "2024-03-01", 500, 900)
	assessment, err := AssessStockout(records, "Acme", "X1", 50, 7)
	require.NoError(t, err)

	m := assessment.Metrics
	assert.Equal(t, 50, m.CurrentStock)
	assert.Equal(t, 0.0, m.AvgDailySales)
	assert.Equal(t, 0.0, m.MaxDailySales)
	assert.Equal(t, 0.0, m.SafetyStock)
	assert.Equal(t, 50.0, m.ReorderPoint)
	assert.Equal(t, domain.JSONFloat(0), m.DaysUntilStockout)

	assert.Equal(t, domain.RiskHigh, assessment.StockoutRisk)
	assert.True(t, assessment.Alert)
	assert.Empty(t, assessment.StockProjections)
}

func TestAssessStockoutProjections(t *testing.T) {
	records := series("Acme", "X1", "2024-03-01", 10, 10, 10)
	assessment, err := AssessStockout(records, "Acme", "X1", 25, 3)
	require.NoError(t, err)

	// 2*leadTime days of projections starting the day after the last
	// observation, floored at zero.
	require.Len(t, assessment.StockProjections, 6)
	assert.Equal(t, "2024-03-04", assessment.StockProjections[0].Date)
	assert.Equal(t, 15.0, assessment.StockProjections[0].AvgCaseStock)
	assert.Equal(t, 5.0, assessment.StockProjections[1].AvgCaseStock)
	assert.Equal(t, 0.0, assessment.StockProjections[2].AvgCaseStock)
	assert.Equal(t, 0.0, assessment.StockProjections[5].AvgCaseStock)
}

func TestAssessStockoutZeroSales(t *testing.T) {
	records := series("Acme", "X1", "2024-03-01", 0, 0, 0)
	assessment, err := AssessStockout(records, "Acme", "X1", 50, 7)
	require.NoError(t, err)

	assert.True(t, math.IsInf(float64(assessment.Metrics.DaysUntilStockout), 1))
	assert.Equal(t, domain.RiskLow, assessment.StockoutRisk)
	assert.False(t, assessment.Alert)

	// Infinite days serialize as null, not as an invalid JSON token.
	payload, err := json.Marshal(assessment.Metrics)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"days_until_stockout":null`)
}

func TestStockoutZeroSalesSurvivesCaching(t *testing.T) {
	// The result cache stores assessments as JSON and decodes them on read;
	// an infinite days-until-stockout must survive that round trip rather
	// than decoding as zero days next to a low risk.
	records := series("Acme", "X1", "2024-03-01", 0, 0, 0)
	assessment, err := AssessStockout(records, "Acme", "X1", 50, 7)
	require.NoError(t, err)

	payload, err := json.Marshal(assessment)
	require.NoError(t, err)

	var decoded domain.StockoutAssessment
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.True(t, math.IsInf(float64(decoded.Metrics.DaysUntilStockout), 1))
	assert.True(t, math.IsInf(float64(decoded.Metrics.WorstCaseDays), 1))
	assert.Equal(t, domain.RiskLow, decoded.StockoutRisk)
}

func TestAssessStockoutDefaultLeadTime(t *testing.T) {
	records := series("Acme", "X1", "2024-03-01", 10, 10, 10)
	assessment, err := AssessStockout(records, "Acme", "X1", 500, 0)
	require.NoError(t, err)
	assert.Len(t, assessment.StockProjections, 14)
}
