package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/citypulse/trafficguide/internal/models"
)

// redisKeyPrefix namespaces area cache entries
const redisKeyPrefix = "area:"

// redisTTL bounds entry lifetime; stale fingerprints age out on their own
const redisTTL = 24 * time.Hour

// RedisCache implements AreaCache backed by Redis
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to Redis and verifies the connection
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// Get returns the cached AreaInfo for key
func (c *RedisCache) Get(ctx context.Context, key string) (models.AreaInfo, bool, error) {
	raw, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return models.AreaInfo{}, false, nil
	}
	if err != nil {
		return models.AreaInfo{}, false, err
	}

	var info models.AreaInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return models.AreaInfo{}, false, err
	}
	return info, true, nil
}

// Set stores an AreaInfo under key
func (c *RedisCache) Set(ctx context.Context, key string, info models.AreaInfo) error {
	raw, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, redisKeyPrefix+key, raw, redisTTL).Err()
}

// Health checks Redis connectivity
func (c *RedisCache) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying client
func (c *RedisCache) Close() error {
	return c.client.Close()
}
