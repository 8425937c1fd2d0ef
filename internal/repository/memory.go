package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/andresuchdata/salescast/backend-go/internal/domain"
)

// memorySalesRepository keeps the dataset in process memory. Used when no
// database is configured: uploads replace or extend the working set and
// everything is lost on restart, which matches how the analytics were run
// before persistence existed.
type memorySalesRepository struct {
	mu      sync.RWMutex
	records map[string]domain.SalesRecord
}

// NewMemorySalesRepository returns an empty in-memory repository.
func NewMemorySalesRepository() *memorySalesRepository {
	return &memorySalesRepository{records: make(map[string]domain.SalesRecord)}
}

func recordKey(r domain.SalesRecord) string {
	return r.Date.Format(domain.DateLayout) + "|" + r.Brand + "|" + r.Model
}

func (m *memorySalesRepository) UpsertRecords(_ context.Context, records []domain.SalesRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		key := recordKey(r)
		if existing, ok := m.records[key]; ok {
			existing.QuantitySold += r.QuantitySold
			m.records[key] = existing
			continue
		}
		m.records[key] = r
	}
	return nil
}

func (m *memorySalesRepository) GetSeries(_ context.Context, brand, model string) ([]domain.SalesRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.SalesRecord
	for _, r := range m.records {
		if r.Brand == brand && r.Model == model {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *memorySalesRepository) GetAll(_ context.Context) ([]domain.SalesRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.SalesRecord, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Brand != out[j].Brand {
			return out[i].Brand < out[j].Brand
		}
		if out[i].Model != out[j].Model {
			return out[i].Model < out[j].Model
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func (m *memorySalesRepository) ListSelectors(_ context.Context) ([]domain.Selector, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[domain.Selector]struct{})
	for _, r := range m.records {
		seen[domain.Selector{Brand: r.Brand, Model: r.Model}] = struct{}{}
	}
	out := make([]domain.Selector, 0, len(seen))
	for sel := range seen {
		out = append(out, sel)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Brand != out[j].Brand {
			return out[i].Brand < out[j].Brand
		}
		return out[i].Model < out[j].Model
	})
	return out, nil
}
