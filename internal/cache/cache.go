package cache

import (
	"context"

	"github.com/citypulse/trafficguide/internal/logger"
	"github.com/citypulse/trafficguide/internal/models"
)

// AreaCache stores classified AreaInfo keyed by lower-cased area name plus
// ruleset fingerprint. Entries are immutable once written because rulesets
// are immutable; a reload changes the fingerprint and naturally misses.
type AreaCache interface {
	Get(ctx context.Context, key string) (models.AreaInfo, bool, error)
	Set(ctx context.Context, key string, info models.AreaInfo) error
	Health(ctx context.Context) error
}

// New selects a cache implementation: Redis when a URL is configured,
// in-memory otherwise.
func New(redisURL string) AreaCache {
	if redisURL == "" {
		logger.Info("REDIS_URL not set; using in-memory area cache")
		return NewMemoryCache()
	}

	c, err := NewRedisCache(redisURL)
	if err != nil {
		logger.Warn("Redis area cache unavailable; falling back to memory", "error", err)
		return NewMemoryCache()
	}
	return c
}
