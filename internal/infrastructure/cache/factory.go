package cache

import (
	"context"
	"fmt"
	"io"
	"time"

	catalogapp "github.com/LautaroPairuna/micaela-martinez-sub001/internal/application/catalog"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Count cache backends
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
	BackendNone   = "none"
)

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewCountCache builds the count cache selected by cfg.Cache. When Redis is selected
// but unreachable it falls back to the in-memory cache with a warning.
// The returned closer releases the backend's resources.
func NewCountCache(cfg config.CountsConfig, redisCfg config.RedisConfig, logger *zap.Logger) (catalogapp.CountCache, io.Closer) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Cache {
	case BackendNone:
		logger.Info("count cache disabled")
		return NoopCountCache{}, NoopCountCache{}
	case BackendRedis:
		client, err := NewRedisClient(redisCfg)
		if err == nil {
			logger.Info("using Redis count cache", zap.String("addr", redisCfg.Addr()))
			c := NewRedisCountCache(client, cfg.CachePrefix)
			return c, c
		}
		logger.Warn("Redis unavailable, falling back to in-memory count cache. "+
			"Instances will not share cached counts.",
			zap.Error(err),
		)
	}
	c := NewInMemoryCountCache(sweepInterval(cfg.CacheTTL))
	return c, c
}

func sweepInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return time.Minute
	}
	return 2 * ttl
}
