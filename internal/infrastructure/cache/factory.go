package cache

import (
	"context"
	"fmt"
	"time"

	appreconciliation "github.com/dairy/backend/internal/application/reconciliation"
	"github.com/dairy/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ReportCacheFactory creates report caches based on configuration
type ReportCacheFactory struct {
	redisConfig           config.RedisConfig
	ttl                   time.Duration
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// ReportCacheFactoryOption is a functional option for configuring the factory
type ReportCacheFactoryOption func(*ReportCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) ReportCacheFactoryOption {
	return func(f *ReportCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to memory when Redis is
// unreachable. Default is true.
func WithInMemoryFallback(allow bool) ReportCacheFactoryOption {
	return func(f *ReportCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewReportCacheFactory creates a new factory
func NewReportCacheFactory(cfg config.RedisConfig, ttl time.Duration, opts ...ReportCacheFactoryOption) *ReportCacheFactory {
	f := &ReportCacheFactory{
		redisConfig:           cfg,
		ttl:                   ttl,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateRedisCache connects to Redis and returns a cache over it together
// with the client, which the caller closes on shutdown
func (f *ReportCacheFactory) CreateRedisCache(ctx context.Context) (*RedisReportCache, *redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     f.redisConfig.Addr(),
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisReportCache(client, f.ttl), client, nil
}

// CreateCache returns a Redis cache when Redis is configured and reachable,
// an in-memory cache otherwise. The returned close function is never nil.
func (f *ReportCacheFactory) CreateCache(ctx context.Context) (appreconciliation.ReportCache, func() error, error) {
	noop := func() error { return nil }
	if f.redisConfig.Host == "" {
		f.logger.Info("Redis not configured, using in-memory report cache")
		return NewInMemoryReportCache(f.ttl), noop, nil
	}

	c, client, err := f.CreateRedisCache(ctx)
	if err == nil {
		f.logger.Info("Using Redis report cache", zap.String("addr", f.redisConfig.Addr()))
		return c, client.Close, nil
	}
	if !f.allowInMemoryFallback {
		return nil, noop, fmt.Errorf("Redis required for report cache but unavailable: %w", err)
	}
	f.logger.Warn("Redis unavailable, falling back to in-memory report cache", zap.Error(err))
	return NewInMemoryReportCache(f.ttl), noop, nil
}
