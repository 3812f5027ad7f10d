package redis

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/moodscope/internal/adapter/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_Connects(t *testing.T) {
	client := setupTestClient(t)

	require.NoError(t, client.Ping(context.Background()).Err())
}

func TestNewClient_InstallsHooks(t *testing.T) {
	m := metrics.NewRedisMetrics(prometheus.NewRegistry())
	client := setupTestClient(t, NewMetricsHook(m))
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "k", "v", 0).Err())
	require.NoError(t, client.Get(ctx, "k").Err())

	assert.Positive(t, testutilValue(m.OpsTotal.WithLabelValues("get", "success")))
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient(context.Background(), "not-a-redis-url")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse redis URL")
}

func TestNewClient_Unreachable(t *testing.T) {
	_, err := NewClient(context.Background(), "redis://127.0.0.1:1/0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ping redis")
}
