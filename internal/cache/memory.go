package cache

import (
	"context"
	"sync"

	"github.com/citypulse/trafficguide/internal/models"
)

// MemoryCache implements AreaCache with an in-process map
type MemoryCache struct {
	mu    sync.RWMutex
	areas map[string]models.AreaInfo
}

// NewMemoryCache creates an empty in-memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		areas: make(map[string]models.AreaInfo),
	}
}

// Get returns the cached AreaInfo for key
func (c *MemoryCache) Get(ctx context.Context, key string) (models.AreaInfo, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	info, ok := c.areas[key]
	return info, ok, nil
}

// Set stores an AreaInfo under key
func (c *MemoryCache) Set(ctx context.Context, key string, info models.AreaInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.areas[key] = info
	return nil
}

// Health always returns nil for the in-memory cache
func (c *MemoryCache) Health(ctx context.Context) error {
	return nil
}

// Len returns the number of cached entries
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.areas)
}
