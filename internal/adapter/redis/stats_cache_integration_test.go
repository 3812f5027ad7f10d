package redis

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pscheid92/moodscope/internal/adapter/metrics"
	"github.com/pscheid92/moodscope/internal/domain"
)

func TestStatsCache_SetGetInvalidate(t *testing.T) {
	client := setupTestClient(t)
	cache := NewStatsCache(client, clockwork.NewFakeClock(), 30*time.Second, 0, metrics.NewCacheMetrics(prometheus.NewRegistry()))
	ctx := context.Background()

	_, hit := cache.Get(ctx)
	assert.False(t, hit)

	want := domain.AppStats{TotalUsers: 4, TotalAnalyses: 17, UpdatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	cache.Set(ctx, want)

	got, hit := cache.Get(ctx)
	require.True(t, hit)
	assert.Equal(t, want.TotalUsers, got.TotalUsers)
	assert.Equal(t, want.TotalAnalyses, got.TotalAnalyses)
	assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt))

	ttl, err := client.TTL(ctx, statsCacheKey).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 25*time.Second)
	assert.LessOrEqual(t, ttl, 30*time.Second)

	require.NoError(t, cache.Invalidate(ctx))
	_, hit = cache.Get(ctx)
	assert.False(t, hit)
}

func TestStatsCache_CorruptEntryIsMiss(t *testing.T) {
	client := setupTestClient(t)
	cache := NewStatsCache(client, clockwork.NewFakeClock(), 30*time.Second, 0, metrics.NewCacheMetrics(prometheus.NewRegistry()))
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, statsCacheKey, "{not json", time.Minute).Err())

	_, hit := cache.Get(ctx)
	assert.False(t, hit)
}
