package forecast

import (
	"sync"
	"time"
)

// ModelEntry holds everything cached for one product: the fitted model, the
// raw base predictions it produced, and the smoothed output of the most recent
// forecast call. The entry mutex serializes fit-or-reuse and smoothing per
// product, so concurrent requests for the same selector never race while
// requests for different selectors proceed in parallel.
type ModelEntry struct {
	mu           sync.Mutex
	model        *GBM
	basePreds    []float64
	lastSmoothed []float64
	fittedAt     time.Time
}

// FittedAt reports when the cached model was trained.
func (e *ModelEntry) FittedAt() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fittedAt
}

// ModelCache keeps one ModelEntry per product selector. A model is fitted at
// most once per selector and reused for every later forecast; Invalidate is
// the only way to force a refit.
type ModelCache struct {
	mu      sync.Mutex
	entries map[string]*ModelEntry
}

// NewModelCache returns an empty cache.
func NewModelCache() *ModelCache {
	return &ModelCache{entries: make(map[string]*ModelEntry)}
}

// Key derives the cache key for a brand/model pair. The separator cannot
// appear in selector values coming off the wire, so keys never collide.
func Key(brand, model string) string {
	return brand + "::" + model
}

// Entry returns the cache entry for key, creating it if absent.
func (c *ModelCache) Entry(key string) *ModelEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		e = &ModelEntry{}
		c.entries[key] = e
	}
	return e
}

// Invalidate drops the cached model for key, forcing the next forecast to
// refit. Called after new sales data for the product is ingested.
func (c *ModelCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Reset clears every cached model.
func (c *ModelCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*ModelEntry)
}

// Len reports how many selectors currently have cached models or smoothing
// state.
func (c *ModelCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
