package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/andresuchdata/salescast/backend-go/internal/cache"
	"github.com/andresuchdata/salescast/backend-go/internal/demand"
	"github.com/andresuchdata/salescast/backend-go/internal/domain"
	"github.com/andresuchdata/salescast/backend-go/internal/forecast"
	"github.com/andresuchdata/salescast/backend-go/internal/repository"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// AnalysisService fronts the analytics core. Requests may carry their own
// sales data inline; when they don't, the series is loaded from the
// repository. Computed results are cached in Redis when it is configured.
type AnalysisService struct {
	repo       repository.SalesRepository
	cache      cache.AnalysisCache
	forecaster *forecast.Forecaster
}

func NewAnalysisService(repo repository.SalesRepository, cacheImpl cache.AnalysisCache, forecaster *forecast.Forecaster) *AnalysisService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopAnalysisCache()
	}
	return &AnalysisService{repo: repo, cache: cacheImpl, forecaster: forecaster}
}

// resolveSeries returns the inline records when provided, otherwise the
// stored series for the selector.
func (s *AnalysisService) resolveSeries(ctx context.Context, inline []domain.SalesRecord, brand, model string) ([]domain.SalesRecord, error) {
	if len(inline) > 0 {
		return inline, nil
	}
	if s.repo == nil {
		return nil, domain.ErrEmptySeries
	}
	records, err := s.repo.GetSeries(ctx, brand, model)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales series: %w", err)
	}
	if len(records) == 0 {
		return nil, domain.ErrNoDataForSelector
	}
	return records, nil
}

// Forecast predicts the next horizon days of sales for one product. Inline
// results are never cached because the forecaster's own smoothing state must
// advance on every call.
func (s *AnalysisService) Forecast(ctx context.Context, inline []domain.SalesRecord, brand, model string, horizon int) (*domain.ForecastResult, error) {
	records, err := s.resolveSeries(ctx, inline, brand, model)
	if err != nil {
		return nil, err
	}
	result, err := s.forecaster.Forecast(records, brand, model, horizon)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("brand", brand).
		Str("model", model).
		Int("horizon", len(result.Forecast)).
		Msg("forecast computed")
	return result, nil
}

// AnalyzeDemand computes descriptive demand statistics for one product.
func (s *AnalysisService) AnalyzeDemand(ctx context.Context, inline []domain.SalesRecord, brand, model string) (*domain.DemandStats, error) {
	records, err := s.resolveSeries(ctx, inline, brand, model)
	if err != nil {
		return nil, err
	}

	params := map[string]string{"brand": brand, "model": model}
	cacheable := len(inline) == 0
	if cacheable {
		var cached domain.DemandStats
		if ok, err := s.cache.Get(ctx, "demand", params, &cached); err != nil {
			log.Warn().Err(err).Msg("analysis: cache get demand failed")
		} else if ok {
			return &cached, nil
		}
	}

	stats, err := demand.Analyze(records, brand, model)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if err := s.cache.Set(ctx, "demand", params, stats); err != nil {
			log.Warn().Err(err).Msg("analysis: cache set demand failed")
		}
	}
	return stats, nil
}

// AssessStockout evaluates stockout risk for one product at the given stock
// level and lead time.
func (s *AnalysisService) AssessStockout(ctx context.Context, inline []domain.SalesRecord, brand, model string, currentStock, leadTime int) (*domain.StockoutAssessment, error) {
	records, err := s.resolveSeries(ctx, inline, brand, model)
	if err != nil {
		return nil, err
	}

	params := map[string]string{
		"brand":         brand,
		"model":         model,
		"current_stock": strconv.Itoa(currentStock),
		"lead_time":     strconv.Itoa(leadTime),
	}
	cacheable := len(inline) == 0
	if cacheable {
		var cached domain.StockoutAssessment
		if ok, err := s.cache.Get(ctx, "stockout", params, &cached); err != nil {
			log.Warn().Err(err).Msg("analysis: cache get stockout failed")
		} else if ok {
			return &cached, nil
		}
	}

	assessment, err := demand.AssessStockout(records, brand, model, currentStock, leadTime)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if err := s.cache.Set(ctx, "stockout", params, assessment); err != nil {
			log.Warn().Err(err).Msg("analysis: cache set stockout failed")
		}
	}
	return assessment, nil
}

// ListSelectors returns every product with stored data.
func (s *AnalysisService) ListSelectors(ctx context.Context) ([]domain.Selector, error) {
	if s.repo == nil {
		return []domain.Selector{}, nil
	}
	selectors, err := s.repo.ListSelectors(ctx)
	if err != nil {
		return nil, err
	}
	if selectors == nil {
		selectors = make([]domain.Selector, 0)
	}
	return selectors, nil
}

// Ingest stores records and invalidates cached results and models for every
// selector the batch touches.
func (s *AnalysisService) Ingest(ctx context.Context, records []domain.SalesRecord) (int, error) {
	if s.repo == nil {
		return 0, fmt.Errorf("no repository configured")
	}
	if err := s.repo.UpsertRecords(ctx, records); err != nil {
		return 0, err
	}
	seen := make(map[domain.Selector]struct{})
	for _, r := range records {
		sel := domain.Selector{Brand: r.Brand, Model: r.Model}
		if _, ok := seen[sel]; ok {
			continue
		}
		seen[sel] = struct{}{}
		s.forecaster.Cache().Invalidate(forecast.Key(sel.Brand, sel.Model))
		if err := s.cache.InvalidateSelector(ctx, sel.Brand, sel.Model); err != nil {
			log.Warn().Err(err).Str("brand", sel.Brand).Str("model", sel.Model).Msg("analysis: cache invalidate failed")
		}
	}
	return len(records), nil
}

// InvalidateResults drops every fitted model and every cached analysis
// result. Exposed for operators after a bulk data correction; normal ingests
// invalidate per selector instead.
func (s *AnalysisService) InvalidateResults(ctx context.Context) error {
	s.forecaster.Cache().Reset()
	return s.cache.InvalidateAll(ctx)
}

// BatchForecastItem pairs a selector with its forecast or failure.
type BatchForecastItem struct {
	Selector domain.Selector        `json:"selector"`
	Result   *domain.ForecastResult `json:"result,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

// BatchForecast forecasts every stored selector with bounded concurrency.
// Individual failures are reported per selector rather than aborting the
// batch.
func (s *AnalysisService) BatchForecast(ctx context.Context, horizon, concurrency int) ([]BatchForecastItem, error) {
	selectors, err := s.ListSelectors(ctx)
	if err != nil {
		return nil, err
	}
	if concurrency <= 0 {
		concurrency = 4
	}

	items := make([]BatchForecastItem, len(selectors))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, sel := range selectors {
		i, sel := i, sel
		g.Go(func() error {
			items[i].Selector = sel
			result, err := s.Forecast(gctx, nil, sel.Brand, sel.Model, horizon)
			if err != nil {
				items[i].Error = err.Error()
				return nil
			}
			items[i].Result = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}
