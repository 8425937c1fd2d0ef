// backend-go/internal/repository/postgres/sales_repository.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/andresuchdata/salescast/backend-go/internal/domain"
	"github.com/jmoiron/sqlx"
)

type salesRepository struct {
	db *DB
}

func NewSalesRepository(db *DB) *salesRepository {
	return &salesRepository{db: db}
}

// EnsureSchema creates the sales table if it does not exist. The unique
// constraint backs the upsert; quantities for a repeated key accumulate.
func (r *salesRepository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS sales_records (
			id BIGSERIAL PRIMARY KEY,
			date DATE NOT NULL,
			brand TEXT NOT NULL,
			model TEXT NOT NULL,
			quantity_sold DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ,
			UNIQUE (date, brand, model)
		)
	`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure sales schema: %w", err)
	}
	return nil
}

func (r *salesRepository) UpsertRecords(ctx context.Context, records []domain.SalesRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO sales_records (date, brand, model, quantity_sold)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (date, brand, model)
			DO UPDATE SET
				quantity_sold = sales_records.quantity_sold + EXCLUDED.quantity_sold,
				updated_at = NOW()
		`
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, rec := range records {
			if _, err := stmt.ExecContext(ctx, rec.Date, rec.Brand, rec.Model, rec.QuantitySold); err != nil {
				return fmt.Errorf("failed to insert sales record: %w", err)
			}
		}
		return nil
	})
}

func (r *salesRepository) GetSeries(ctx context.Context, brand, model string) ([]domain.SalesRecord, error) {
	query := `
		SELECT date, brand, model, quantity_sold
		FROM sales_records
		WHERE brand = $1 AND model = $2
		ORDER BY date ASC
	`
	var records []domain.SalesRecord
	if err := sqlx.SelectContext(ctx, r.db, &records, query, brand, model); err != nil {
		return nil, fmt.Errorf("failed to get sales series: %w", err)
	}
	return records, nil
}

func (r *salesRepository) GetAll(ctx context.Context) ([]domain.SalesRecord, error) {
	query := `
		SELECT date, brand, model, quantity_sold
		FROM sales_records
		ORDER BY brand, model, date
	`
	var records []domain.SalesRecord
	if err := sqlx.SelectContext(ctx, r.db, &records, query); err != nil {
		return nil, fmt.Errorf("failed to get sales records: %w", err)
	}
	return records, nil
}

func (r *salesRepository) ListSelectors(ctx context.Context) ([]domain.Selector, error) {
	query := `
		SELECT DISTINCT brand, model
		FROM sales_records
		ORDER BY brand, model
	`
	var selectors []domain.Selector
	if err := sqlx.SelectContext(ctx, r.db, &selectors, query); err != nil {
		return nil, fmt.Errorf("failed to list selectors: %w", err)
	}
	return selectors, nil
}
