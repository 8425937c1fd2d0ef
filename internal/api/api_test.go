package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andresuchdata/salescast/backend-go/internal/cache"
	"github.com/andresuchdata/salescast/backend-go/internal/domain"
	"github.com/andresuchdata/salescast/backend-go/internal/forecast"
	"github.com/andresuchdata/salescast/backend-go/internal/repository"
	"github.com/andresuchdata/salescast/backend-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	forecaster := forecast.NewForecaster(forecast.Params{
		Estimators:   100,
		LearningRate: 0.1,
		MaxDepth:     3,
		Smoothing:    0.9,
		HorizonDays:  14,
	}, forecast.NewModelCache())

	svc := service.NewAnalysisService(
		repository.NewMemorySalesRepository(),
		cache.NewNoopAnalysisCache(),
		forecaster,
	)
	return NewRouter(&Services{AnalysisService: svc}, nil)
}

func inlineSales(n int, value float64) []map[string]interface{} {
	start, _ := time.Parse(domain.DateLayout, "2024-03-01")
	rows := make([]map[string]interface{}, n)
	for i := range rows {
		rows[i] = map[string]interface{}{
			"date":          start.AddDate(0, 0, i).Format(domain.DateLayout),
			"brand":         "Acme",
			"model":         "X1",
			"quantity_sold": value,
		}
	}
	return rows
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestForecastEndpoint(t *testing.T) {
	router := newTestRouter(t)
	w := postJSON(t, router, "/api/sales/forecast", map[string]interface{}{
		"sales_data":   inlineSales(28, 10),
		"brand":        "Acme",
		"model":        "X1",
		"horizon_days": 7,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var result domain.ForecastResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Len(t, result.Forecast, 7)
	assert.Equal(t, 10.0, result.BaselineStats.Mean)
	for _, entry := range result.Forecast {
		assert.GreaterOrEqual(t, entry.PredictedSales, 5.0)
		assert.LessOrEqual(t, entry.PredictedSales, 20.0)
	}
}

func TestForecastEndpointNoData(t *testing.T) {
	router := newTestRouter(t)
	w := postJSON(t, router, "/api/sales/forecast", map[string]interface{}{
		"sales_data": inlineSales(10, 5),
		"brand":      "Zenith",
		"model":      "Z9",
	})

	// No data for a selector is an expected condition: 200 with a
	// structured error and an empty forecast.
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body["error"])
	assert.Empty(t, body["forecast"])
}

func TestForecastEndpointInsufficientHistory(t *testing.T) {
	router := newTestRouter(t)
	w := postJSON(t, router, "/api/sales/forecast", map[string]interface{}{
		"sales_data": inlineSales(2, 5),
		"brand":      "Acme",
		"model":      "X1",
	})

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body["error"])
}

func TestForecastEndpointBadDate(t *testing.T) {
	router := newTestRouter(t)
	w := postJSON(t, router, "/api/sales/forecast", map[string]interface{}{
		"sales_data": []map[string]interface{}{
			{"date": "03/01/2024", "brand": "Acme", "model": "X1", "quantity_sold": 5},
		},
		"brand": "Acme",
		"model": "X1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDemandAnalysisEndpoint(t *testing.T) {
	router := newTestRouter(t)
	w := postJSON(t, router, "/api/sales/demand-analysis", map[string]interface{}{
		"sales_data": inlineSales(10, 10),
		"brand":      "Acme",
		"model":      "X1",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var stats domain.DemandStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 10.0, stats.Average)
	assert.Equal(t, 100.0, stats.Total)
	assert.Len(t, stats.MovingAverages, 10)
}

func TestStockoutEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rows := []map[string]interface{}{
		{"date": "2024-03-01", "brand": "Acme", "model": "X1", "quantity_sold": 8},
		{"date": "2024-03-02", "brand": "Acme", "model": "X1", "quantity_sold": 10},
		{"date": "2024-03-03", "brand": "Acme", "model": "X1", "quantity_sold": 12},
	}
	w := postJSON(t, router, "/api/sales/stockout-prediction", map[string]interface{}{
		"sales_data":     rows,
		"brand":          "Acme",
		"model":          "X1",
		"current_stock":  75,
		"lead_time_days": 7,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var assessment domain.StockoutAssessment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &assessment))
	assert.Equal(t, domain.RiskHigh, assessment.StockoutRisk)
	assert.True(t, assessment.Alert)
	assert.InDelta(t, 80.58, assessment.Metrics.ReorderPoint, 0.01)
	assert.Len(t, assessment.StockProjections, 14)
}

func TestInvalidateCacheEndpoint(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/sales/cache/invalidate", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUploadAndSelectorsEndpoints(t *testing.T) {
	router := newTestRouter(t)

	var buf bytes.Buffer
	mw := newMultipartCSV(t, &buf, []string{
		"date,brand,model,quantity_sold",
		"2024-03-01,Acme,X1,5",
		"2024-03-02,Acme,X1,7",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/sales/upload", &buf)
	req.Header.Set("Content-Type", mw)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/sales/selectors", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Selectors []domain.Selector `json:"selectors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Selectors, 1)
	assert.Equal(t, "Acme", body.Selectors[0].Brand)
}

func TestUploadEndpointBadCSV(t *testing.T) {
	router := newTestRouter(t)

	var buf bytes.Buffer
	mw := newMultipartCSV(t, &buf, []string{
		"date,brand,model,quantity_sold",
		"garbage,Acme,X1,5",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/sales/upload", &buf)
	req.Header.Set("Content-Type", mw)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func newMultipartCSV(t *testing.T, buf *bytes.Buffer, lines []string) string {
	t.Helper()
	writer := multipart.NewWriter(buf)
	part, err := writer.CreateFormFile("file", "sales.csv")
	require.NoError(t, err)
	for _, line := range lines {
		fmt.Fprintln(part, line)
	}
	require.NoError(t, writer.Close())
	return writer.FormDataContentType()
}
