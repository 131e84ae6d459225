// Package cache opens the Redis client used by repository.CachedStore.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shiva/tripplanner/config"
)

const (
	dialTimeout   = 5 * time.Second
	ioTimeout     = 2 * time.Second
	pingTimeout   = 5 * time.Second
	healthTimeout = 2 * time.Second
	minIdleConns  = 2
)

// redisOptions maps the plan-cache settings onto go-redis options.
func redisOptions(cfg config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: minIdleConns,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
	}
}

// NewRedisClient connects to the plan cache. An unreachable server is an
// error; main only calls this when REDIS_ENABLED is set.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(redisOptions(cfg))

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", cfg.Addr(), err)
	}
	return client, nil
}

// HealthCheck reports whether the plan cache answers a ping.
func HealthCheck(ctx context.Context, client *redis.Client) error {
	pingCtx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	return client.Ping(pingCtx).Err()
}
