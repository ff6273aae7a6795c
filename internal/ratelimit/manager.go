package ratelimit

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Manager provides Redis-backed per-client rate limiting with daily usage
// accounting. Counters live in minute windows keyed by client, method and
// path, so limits apply per endpoint.
type Manager struct {
	redis     *redis.Client
	perMinute atomic.Int64
}

// NewManager connects to Redis and verifies the connection
func NewManager(redisURL string, perMinute int) (*Manager, error) {
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

	m := &Manager{redis: client}
	m.perMinute.Store(int64(perMinute))
	return m, nil
}

// SetLimit overrides the per-minute limit (used by tests and live tuning)
func (m *Manager) SetLimit(perMinute int) {
	m.perMinute.Store(int64(perMinute))
}

// Limit returns the current per-minute limit
func (m *Manager) Limit() int {
	return int(m.perMinute.Load())
}

func (m *Manager) Close() error { return m.redis.Close() }

func dayKey(t time.Time) string { return t.Format("20060102") }

// CheckRate returns allowed=false when the client exhausted its minute
// window; resetSec says how long until the window turns over
func (m *Manager) CheckRate(ctx context.Context, clientID, method, path string) (allowed bool, resetSec int, err error) {
	now := time.Now().UTC()
	window := now.Unix() / 60
	rk := fmt.Sprintf("rl:%s:%s:%s:%d", clientID, method, path, window)

	pipe := m.redis.TxPipeline()
	incr := pipe.Incr(ctx, rk)
	pipe.Expire(ctx, rk, time.Minute)
	if _, err = pipe.Exec(ctx); err != nil {
		return false, 0, err
	}

	if int(incr.Val()) > m.Limit() {
		secPassed := int(now.Unix() % 60)
		return false, 60 - secPassed, nil
	}
	return true, 0, nil
}

// IncUsage bumps the daily usage counters after a served request
func (m *Manager) IncUsage(ctx context.Context, clientID, method, path string, now time.Time) error {
	totalKey := fmt.Sprintf("usage:%s:%s:total", clientID, dayKey(now))
	epKey := fmt.Sprintf("usage:%s:%s:ep:%s:%s", clientID, dayKey(now), method, path)
	exp := 48 * time.Hour

	pipe := m.redis.TxPipeline()
	pipe.Incr(ctx, totalKey)
	pipe.Expire(ctx, totalKey, exp)
	pipe.Incr(ctx, epKey)
	pipe.Expire(ctx, epKey, exp)
	_, err := pipe.Exec(ctx)
	return err
}

// Usage returns the client's request total for the given day
func (m *Manager) Usage(ctx context.Context, clientID string, now time.Time) (int, error) {
	totalKey := fmt.Sprintf("usage:%s:%s:total", clientID, dayKey(now))
	val, err := m.redis.Get(ctx, totalKey).Int()
	if err == redis.Nil {
		return 0, nil
	}
	return val, err
}
