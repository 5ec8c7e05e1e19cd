// AngelaMos | 2026
// redis.go

package core

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/storefront/internal/config"
)

const redisPingTimeout = 5 * time.Second

// Redis wraps the shared client used by the refresh store, the product
// views and the rate limiters.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects and pings. Socket timeouts are capped at
// opTimeout and the client honors per-call context deadlines.
func NewRedis(
	ctx context.Context,
	cfg config.RedisConfig,
	opTimeout time.Duration,
) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	applyRedisOptions(opts, cfg, opTimeout)

	r := &Redis{Client: redis.NewClient(opts)}
	if err := r.Ping(ctx); err != nil {
		_ = r.Client.Close() //nolint:errcheck // already failing
		return nil, err
	}

	return r, nil
}

func applyRedisOptions(opts *redis.Options, cfg config.RedisConfig, opTimeout time.Duration) {
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.MinIdleConns = cfg.MinIdleConns
	opts.ConnMaxIdleTime = 5 * time.Minute
	opts.ContextTimeoutEnabled = true

	if opTimeout > 0 {
		opts.DialTimeout = opTimeout
		opts.ReadTimeout = opTimeout
		opts.WriteTimeout = opTimeout
		opts.PoolTimeout = opTimeout
	}
}

func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping reports store reachability as an upstream error.
func (r *Redis) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()

	return Upstream("redis ping", r.Client.Ping(pingCtx).Err())
}

func (r *Redis) PoolStats() *redis.PoolStats {
	return r.Client.PoolStats()
}
