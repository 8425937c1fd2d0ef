package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/andresuchdata/salescast/backend-go/internal/domain"
	"github.com/andresuchdata/salescast/backend-go/internal/ingest"
	"github.com/andresuchdata/salescast/backend-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type AnalysisHandler struct {
	service *service.AnalysisService
}

func NewAnalysisHandler(service *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{service: service}
}

// salesRecordRequest is one inline sales row. Dates must match the wire
// layout exactly; anything else is rejected before analysis starts.
type salesRecordRequest struct {
	Date         string  `json:"date"`
	Brand        string  `json:"brand"`
	Model        string  `json:"model"`
	QuantitySold float64 `json:"quantity_sold"`
}

type forecastRequest struct {
	SalesData   []salesRecordRequest `json:"sales_data"`
	Brand       string               `json:"brand"`
	Model       string               `json:"model"`
	HorizonDays int                  `json:"horizon_days"`
}

type demandRequest struct {
	SalesData []salesRecordRequest `json:"sales_data"`
	Brand     string               `json:"brand"`
	Model     string               `json:"model"`
}

type stockoutRequest struct {
	SalesData    []salesRecordRequest `json:"sales_data"`
	Brand        string               `json:"brand"`
	Model        string               `json:"model"`
	CurrentStock int                  `json:"current_stock"`
	LeadTimeDays int                  `json:"lead_time_days"`
}

func parseSalesData(rows []salesRecordRequest) ([]domain.SalesRecord, error) {
	records := make([]domain.SalesRecord, 0, len(rows))
	for i, row := range rows {
		date, err := time.Parse(domain.DateLayout, row.Date)
		if err != nil {
			return nil, domain.NewInvalidInput("date", "row %d: expected %s, got %q", i, domain.DateLayout, row.Date)
		}
		if row.QuantitySold < 0 {
			return nil, domain.NewInvalidInput("quantity_sold", "row %d: negative quantity %v", i, row.QuantitySold)
		}
		records = append(records, domain.SalesRecord{
			Date:         date.UTC(),
			Brand:        row.Brand,
			Model:        row.Model,
			QuantitySold: row.QuantitySold,
		})
	}
	return records, nil
}

func (h *AnalysisHandler) Forecast(c *gin.Context) {
	var req forecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	records, err := parseSalesData(req.SalesData)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.Forecast(c.Request.Context(), records, req.Brand, req.Model, req.HorizonDays)
	if err != nil {
		h.respondAnalysisError(c, err, gin.H{
			"forecast": []domain.ForecastEntry{},
			"error":    err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *AnalysisHandler) AnalyzeDemand(c *gin.Context) {
	var req demandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	records, err := parseSalesData(req.SalesData)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stats, err := h.service.AnalyzeDemand(c.Request.Context(), records, req.Brand, req.Model)
	if err != nil {
		h.respondAnalysisError(c, err, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *AnalysisHandler) AssessStockout(c *gin.Context) {
	var req stockoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	records, err := parseSalesData(req.SalesData)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	assessment, err := h.service.AssessStockout(c.Request.Context(), records, req.Brand, req.Model, req.CurrentStock, req.LeadTimeDays)
	if err != nil {
		h.respondAnalysisError(c, err, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, assessment)
}

// respondAnalysisError maps analytics errors to responses. Missing or thin
// data is an expected outcome for new products, so those cases answer 200
// with a structured error the frontend renders inline; bad input is a 400;
// everything else is a 500.
func (h *AnalysisHandler) respondAnalysisError(c *gin.Context, err error, body gin.H) {
	switch {
	case domain.IsInvalidInput(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNoDataForSelector),
		errors.Is(err, domain.ErrInsufficientHistory),
		errors.Is(err, domain.ErrEmptySeries):
		c.JSON(http.StatusOK, body)
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("analysis failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
	}
}

func (h *AnalysisHandler) ListSelectors(c *gin.Context) {
	selectors, err := h.service.ListSelectors(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list selectors")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list selectors"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"selectors": selectors})
}

// InvalidateCache drops all fitted models and cached analysis results.
func (h *AnalysisHandler) InvalidateCache(c *gin.Context) {
	if err := h.service.InvalidateResults(c.Request.Context()); err != nil {
		log.Error().Err(err).Msg("failed to invalidate caches")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to invalidate caches"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// Upload ingests a CSV of sales records from a multipart form.
func (h *AnalysisHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open uploaded file"})
		return
	}
	defer file.Close()

	records, err := ingest.ReadSalesCSV(file)
	if err != nil {
		if domain.IsInvalidInput(err) || errors.Is(err, domain.ErrEmptySeries) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse CSV: " + err.Error()})
		return
	}

	count, err := h.service.Ingest(c.Request.Context(), records)
	if err != nil {
		log.Error().Err(err).Msg("failed to ingest upload")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store sales records"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "records": count})
}
