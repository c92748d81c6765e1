//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisReportCache_RoundTrip(t *testing.T) {
	client := startRedis(t)
	ctx := context.Background()
	c := NewRedisReportCache(client, time.Minute)
	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	_, ok, err := c.Get(ctx, date)
	require.NoError(t, err)
	assert.False(t, ok)

	report := sampleReport(date)
	require.NoError(t, c.Set(ctx, date, report))

	got, ok, err := c.Get(ctx, date)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, report.ID, got.ID)
	assert.True(t, got.NetProfit.Equal(report.NetProfit))

	ttl, err := client.TTL(ctx, "dairy:reconciliation:report:2026-03-01").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
