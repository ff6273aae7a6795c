package classifier

import (
	"context"
	"strings"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/citypulse/trafficguide/internal/cache"
	"github.com/citypulse/trafficguide/internal/logger"
	"github.com/citypulse/trafficguide/internal/metrics"
	"github.com/citypulse/trafficguide/internal/models"
	"github.com/citypulse/trafficguide/internal/rules"
)

// Classifier resolves free-text location names against the rules catalog
type Classifier struct {
	provider rules.Provider
	matcher  Matcher
	cache    cache.AreaCache
}

// New creates a Classifier backed by the given ruleset provider and cache
func New(provider rules.Provider, matcher Matcher, areaCache cache.AreaCache) *Classifier {
	if matcher == nil {
		matcher = SubstringMatcher{}
	}
	return &Classifier{
		provider: provider,
		matcher:  matcher,
		cache:    areaCache,
	}
}

// Classify resolves an area name to its zone and hotspot status. A blank name
// yields a zero AreaInfo. Unknown names come back with the trimmed name set
// but no zone or hotspot flag; callers decide how to handle those.
func (c *Classifier) Classify(ctx context.Context, name string) models.AreaInfo {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		metrics.RecordClassification("blank")
		return models.AreaInfo{}
	}

	rs := c.provider.Current()
	key := c.cacheKey(rs, trimmed)

	if c.cache != nil {
		if info, ok, err := c.cache.Get(ctx, key); err == nil && ok {
			metrics.RecordClassification("cache_hit")
			return info
		} else if err != nil {
			logger.Warn("Area cache read failed; classifying directly", "area", trimmed, "error", err)
		}
	}

	info := c.classify(rs, trimmed)

	if info.Known() {
		metrics.RecordClassification("known")
	} else {
		metrics.RecordClassification("unknown")
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, info); err != nil {
			logger.Warn("Area cache write failed", "area", trimmed, "error", err)
		}
	}
	return info
}

// classify runs the catalog matching against one ruleset snapshot
func (c *Classifier) classify(rs *rules.Ruleset, name string) models.AreaInfo {
	info := models.AreaInfo{Name: name}
	if rs == nil {
		return info
	}

	// First declared zone wins when an area appears in several.
zones:
	for _, zone := range rs.Zones {
		for _, area := range zone.Areas {
			if c.matcher.Match(area, name) {
				info.Zone = zone.Name
				break zones
			}
		}
	}

	for _, hotspot := range rs.Hotspots {
		if c.matcher.Match(hotspot, name) {
			info.IsHotspot = true
			info.NearbyLandmark = hotspot
			break
		}
	}
	return info
}

func (c *Classifier) cacheKey(rs *rules.Ruleset, name string) string {
	fingerprint := ""
	if rs != nil {
		fingerprint = rs.Fingerprint
	}
	return fingerprint + ":" + strings.ToLower(name)
}

// Warmup classifies every catalog area so a cold cache does not slow the
// first requests after startup or a rules reload. Work is bounded by workers
// concurrent classifications paced at perSecond.
func (c *Classifier) Warmup(ctx context.Context, workers int64, perSecond float64) error {
	if workers <= 0 {
		workers = 4
	}
	rs := c.provider.Current()
	if rs == nil {
		return nil
	}

	seen := make(map[string]struct{})
	var areas []string
	add := func(name string) {
		lower := strings.ToLower(name)
		if _, ok := seen[lower]; ok {
			return
		}
		seen[lower] = struct{}{}
		areas = append(areas, name)
	}
	for _, zone := range rs.Zones {
		for _, area := range zone.Areas {
			add(area)
		}
	}
	for _, hotspot := range rs.Hotspots {
		add(hotspot)
	}

	sem := semaphore.NewWeighted(workers)
	limiter := rate.NewLimiter(rate.Limit(perSecond), 1)
	if perSecond <= 0 {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}

	for _, area := range areas {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			return err
		}
		go func(name string) {
			defer sem.Release(1)
			c.Classify(ctx, name)
		}(area)
	}

	// Wait for stragglers
	if err := sem.Acquire(ctx, workers); err != nil {
		return err
	}
	sem.Release(workers)

	logger.Info("Area cache warmed", "areas", len(areas))
	return nil
}
