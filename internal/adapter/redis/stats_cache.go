package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/pscheid92/moodscope/internal/adapter/metrics"
	"github.com/pscheid92/moodscope/internal/domain"
)

const statsCacheKey = "app_stats"

// StatsCache keeps the public AppStats snapshot in Redis, shared by all
// replicas, with an optional short-lived in-process layer in front. Failures are
// logged and reported as misses.
type StatsCache struct {
	rdb     goredis.Cmdable
	ttl     time.Duration
	mem     *memoryCache
	metrics *metrics.CacheMetrics
}

var _ domain.StatsCache = (*StatsCache)(nil)

// NewStatsCache caches snapshots in Redis for ttl. memTTL > 0 enables the
// in-process layer; keep it well below ttl since invalidations only clear it
// on the local replica.
func NewStatsCache(rdb goredis.Cmdable, clock clockwork.Clock, ttl, memTTL time.Duration, m *metrics.CacheMetrics) *StatsCache {
	c := &StatsCache{rdb: rdb, ttl: ttl, metrics: m}
	if memTTL > 0 {
		c.mem = newMemoryCache(clock, memTTL)
	}
	return c
}

func (c *StatsCache) Get(ctx context.Context) (*domain.AppStats, bool) {
	if stats, ok := c.mem.get(); ok {
		c.metrics.Hits.Inc()
		return &stats, true
	}

	data, err := c.rdb.Get(ctx, statsCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.metrics.Errors.Inc()
			slog.WarnContext(ctx, "Redis stats cache GET failed", "error", err)
		}
		c.metrics.Misses.Inc()
		return nil, false
	}

	var stats domain.AppStats
	if err := json.Unmarshal(data, &stats); err != nil {
		c.metrics.Errors.Inc()
		c.metrics.Misses.Inc()
		slog.WarnContext(ctx, "Failed to unmarshal cached stats", "error", err)
		return nil, false
	}

	c.metrics.Hits.Inc()
	c.mem.set(stats)
	return &stats, true
}

func (c *StatsCache) Set(ctx context.Context, stats domain.AppStats) {
	c.mem.set(stats)

	encoded, err := json.Marshal(stats)
	if err != nil {
		slog.WarnContext(ctx, "Failed to marshal stats for Redis cache", "error", err)
		return
	}
	if err := c.rdb.Set(ctx, statsCacheKey, encoded, c.ttl).Err(); err != nil {
		c.metrics.Errors.Inc()
		slog.WarnContext(ctx, "Failed to populate Redis stats cache", "error", err)
	}
}

func (c *StatsCache) Invalidate(ctx context.Context) error {
	c.mem.invalidate()
	c.metrics.Invalidations.Inc()

	if err := c.rdb.Del(ctx, statsCacheKey).Err(); err != nil {
		c.metrics.Errors.Inc()
		return fmt.Errorf("failed to invalidate stats cache: %w", err)
	}
	return nil
}

// memoryCache holds a single snapshot with a TTL. A nil *memoryCache is a
// disabled cache: every get misses and writes are dropped.
type memoryCache struct {
	mu        sync.RWMutex
	clock     clockwork.Clock
	ttl       time.Duration
	stats     domain.AppStats
	expiresAt time.Time
	valid     bool
}

func newMemoryCache(clock clockwork.Clock, ttl time.Duration) *memoryCache {
	return &memoryCache{clock: clock, ttl: ttl}
}

func (m *memoryCache) get() (domain.AppStats, bool) {
	if m == nil {
		return domain.AppStats{}, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.valid || m.clock.Now().After(m.expiresAt) {
		return domain.AppStats{}, false
	}
	return m.stats, true
}

func (m *memoryCache) set(stats domain.AppStats) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats = stats
	m.expiresAt = m.clock.Now().Add(m.ttl)
	m.valid = true
}

func (m *memoryCache) invalidate() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.valid = false
}
