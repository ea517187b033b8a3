package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/amyangfei/redlock-go/v3/redlock"
	redis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/selivandex/risklattice/internal/adapters/config"
	"github.com/selivandex/risklattice/pkg/logger"
)

// Client wraps RedLock manager for refresh locks + standard Redis for the forecast cache
type Client struct {
	lockManager *redlock.RedLock
	cache       *redis.Client
	lockTTL     time.Duration
}

// New creates new Redis client with RedLock support + caching
func New(cfg *config.RedisConfig, lockTTL time.Duration) (*Client, error) {
	// Single instance; Redlock accepts several for fault tolerance
	redisAddrs := []string{fmt.Sprintf("tcp://%s", cfg.GetAddr())}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	lockManager, err := redlock.NewRedLock(ctx, redisAddrs)
	if err != nil {
		return nil, fmt.Errorf("failed to create redlock manager: %w", err)
	}

	logger.Info("redis redlock manager initialized",
		zap.Strings("addresses", redisAddrs),
	)

	cacheClient := redis.NewClient(&redis.Options{
		Addr:         cfg.GetAddr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	if err := cacheClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis cache: %w", err)
	}

	logger.Info("redis cache client initialized",
		zap.String("address", cfg.GetAddr()),
		zap.Int("db", cfg.DB),
	)

	return &Client{
		lockManager: lockManager,
		cache:       cacheClient,
		lockTTL:     lockTTL,
	}, nil
}

// GetLockFactory returns a factory for per-symbol refresh locks
func (c *Client) GetLockFactory() LockFactory {
	return NewRedisLockFactory(c.lockManager, c.lockTTL)
}

// ForecastCache returns the latest-forecast cache backed by this client
func (c *Client) ForecastCache(ttl time.Duration) *ForecastCache {
	return NewForecastCache(c.cache, ttl)
}

// Close closes redis connections
func (c *Client) Close() error {
	if c.cache != nil {
		logger.Info("closing redis cache client")
		if err := c.cache.Close(); err != nil {
			return fmt.Errorf("failed to close redis cache: %w", err)
		}
	}

	return nil
}

// Ping checks redis health
func (c *Client) Ping(ctx context.Context) error {
	if err := c.cache.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}
