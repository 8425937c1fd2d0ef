package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/andresuchdata/salescast/backend-go/internal/config"
	"github.com/redis/go-redis/v9"
)

const (
	analysisKeyPrefix    = "analysis:result"
	analysisScanBatchLen = 100
)

// AnalysisCache caches computed analysis payloads (forecasts, demand stats,
// stockout assessments) keyed by operation and request parameters. The noop
// implementation is used when Redis is not configured; callers never branch.
type AnalysisCache interface {
	Get(ctx context.Context, op string, params map[string]string, out interface{}) (bool, error)
	Set(ctx context.Context, op string, params map[string]string, value interface{}) error
	InvalidateSelector(ctx context.Context, brand, model string) error
	InvalidateAll(ctx context.Context) error
}

type redisAnalysisCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopAnalysisCache struct{}

func NewAnalysisCache(cfg config.CacheConfig) (AnalysisCache, error) {
	if !cfg.Enabled {
		return &noopAnalysisCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisAnalysisCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopAnalysisCache() AnalysisCache {
	return &noopAnalysisCache{}
}

func (c *redisAnalysisCache) Get(ctx context.Context, op string, params map[string]string, out interface{}) (bool, error) {
	payload, err := c.client.Get(ctx, buildAnalysisKey(op, params)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return false, fmt.Errorf("decode analysis cache: %w", err)
	}
	return true, nil
}

func (c *redisAnalysisCache) Set(ctx context.Context, op string, params map[string]string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode analysis cache: %w", err)
	}

	if err := c.client.Set(ctx, buildAnalysisKey(op, params), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// InvalidateSelector drops every cached result that mentions the selector.
// Cached entries embed a selector tag in the key precisely so this scan can
// find them after an ingest.
func (c *redisAnalysisCache) InvalidateSelector(ctx context.Context, brand, model string) error {
	prefix := fmt.Sprintf("%s:%s:", analysisKeyPrefix, selectorTag(brand, model))
	return deleteKeysWithPrefix(ctx, c.client, prefix, analysisScanBatchLen)
}

func (c *redisAnalysisCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, analysisKeyPrefix, analysisScanBatchLen)
}

func (n *noopAnalysisCache) Get(ctx context.Context, op string, params map[string]string, out interface{}) (bool, error) {
	return false, nil
}

func (n *noopAnalysisCache) Set(ctx context.Context, op string, params map[string]string, value interface{}) error {
	return nil
}

func (n *noopAnalysisCache) InvalidateSelector(ctx context.Context, brand, model string) error {
	return nil
}

func (n *noopAnalysisCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildAnalysisKey(op string, params map[string]string) string {
	return fmt.Sprintf("%s:%s:%s:%s", analysisKeyPrefix, selectorTag(params["brand"], params["model"]), op, paramsHash(params))
}

func selectorTag(brand, model string) string {
	raw := strings.ToLower(strings.TrimSpace(brand)) + "/" + strings.ToLower(strings.TrimSpace(model))
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:8])
}

func paramsHash(params map[string]string) string {
	if len(params) == 0 {
		return "default"
	}
	parts := make([]string, 0, len(params))
	for k, v := range params {
		parts = append(parts, k+"="+strings.TrimSpace(v))
	}
	sort.Strings(parts)
	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
