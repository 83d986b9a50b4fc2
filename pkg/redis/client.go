package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrCacheMiss is returned by Get when the key is absent.
var ErrCacheMiss = errors.New("redis: cache miss")

// Client is the cache abstraction used by the service layer. A disabled
// client is valid: every read misses and every write is a no-op, so callers
// never branch on whether Redis is configured.
type Client interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	IsEnabled() bool
	Close() error
}

type Config struct {
	Host         string
	Port         int
	Password     string
	DB           int
	Enabled      bool
	PoolSize     int
	MinIdleConns int
}

type client struct {
	rdb    *redis.Client
	logger *zap.Logger
}

type disabledClient struct{}

// NewClient builds a cache client. When cfg.Enabled is false, or the initial
// ping fails, a disabled client is returned and the service runs without a
// cache rather than refusing to start.
func NewClient(cfg Config, log *zap.Logger) Client {
	if log == nil {
		log = zap.NewNop()
	}

	if !cfg.Enabled {
		return disabledClient{}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("Redis unreachable, running without cache",
			zap.String("address", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
			zap.Error(err),
		)
		_ = rdb.Close()
		return disabledClient{}
	}

	log.Info("Connected to Redis",
		zap.String("address", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
		zap.Int("db", cfg.DB),
	)

	return &client{rdb: rdb, logger: log}
}

func (c *client) Get(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		return "", fmt.Errorf("failed to get cache key %q: %w", key, err)
	}
	return val, nil
}

func (c *client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		c.logger.Warn("Failed to set cache key",
			zap.String("key", key),
			zap.Error(err),
		)
		return fmt.Errorf("failed to set cache key %q: %w", key, err)
	}
	return nil
}

func (c *client) Del(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

func (c *client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *client) IsEnabled() bool {
	return true
}

func (c *client) Close() error {
	return c.rdb.Close()
}

func (disabledClient) Get(ctx context.Context, key string) (string, error) {
	return "", ErrCacheMiss
}

func (disabledClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return nil
}

func (disabledClient) Del(ctx context.Context, key string) error { return nil }

func (disabledClient) Ping(ctx context.Context) error { return nil }

func (disabledClient) IsEnabled() bool { return false }

func (disabledClient) Close() error { return nil }
