package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	appreconciliation "github.com/dairy/backend/internal/application/reconciliation"
	"github.com/redis/go-redis/v9"
)

const defaultReportKeyPrefix = "dairy:reconciliation:report:"

// RedisReportCache implements ReportCache using Redis.
// Suitable for deployments running several API instances.
type RedisReportCache struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

// NewRedisReportCache creates a report cache over an existing Redis client
func NewRedisReportCache(client redis.UniversalClient, ttl time.Duration) *RedisReportCache {
	return &RedisReportCache{
		client:    client,
		keyPrefix: defaultReportKeyPrefix,
		ttl:       ttl,
	}
}

func (c *RedisReportCache) key(date time.Time) string {
	return c.keyPrefix + date.UTC().Format(time.DateOnly)
}

// Get returns the cached report for date
func (c *RedisReportCache) Get(ctx context.Context, date time.Time) (*appreconciliation.ReconciliationResponse, bool, error) {
	raw, err := c.client.Get(ctx, c.key(date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var report appreconciliation.ReconciliationResponse
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, false, fmt.Errorf("decode cached report: %w", err)
	}
	return &report, true, nil
}

// Set stores the report for date
func (c *RedisReportCache) Set(ctx context.Context, date time.Time, report *appreconciliation.ReconciliationResponse) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := c.client.Set(ctx, c.key(date), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

var _ appreconciliation.ReportCache = (*RedisReportCache)(nil)
