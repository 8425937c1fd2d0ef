// backend-go/internal/repository/sales_repository.go
package repository

import (
	"context"

	"github.com/andresuchdata/salescast/backend-go/internal/domain"
)

// SalesRepository persists and retrieves daily sales series.
type SalesRepository interface {
	// UpsertRecords stores records, adding quantities into existing rows that
	// share the same (date, brand, model).
	UpsertRecords(ctx context.Context, records []domain.SalesRecord) error

	// GetSeries returns every record for the selector in date order. An empty
	// result is not an error; callers decide how to treat missing selectors.
	GetSeries(ctx context.Context, brand, model string) ([]domain.SalesRecord, error)

	// GetAll returns the full dataset in (brand, model, date) order.
	GetAll(ctx context.Context) ([]domain.SalesRecord, error)

	// ListSelectors returns the distinct brand/model pairs with data.
	ListSelectors(ctx context.Context) ([]domain.Selector, error)
}
