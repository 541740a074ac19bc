package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/tilegen-backend/internal/platform/logger"
)

type Redis struct {
	log *logger.Logger
	rdb *goredis.Client
}

// NewRedis connects to addr and pings it, retrying while the server comes up.
func NewRedis(ctx context.Context, log *logger.Logger, addr string) (*Redis, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	serviceLog := log.With("service", "RedisCache")

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	err := retry.Do(
		func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return rdb.Ping(pingCtx).Err()
		},
		retry.Context(ctx),
		retry.Attempts(5),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			serviceLog.Warn("redis ping failed, retrying", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	serviceLog.Info("redis connected", "addr", addr)
	return &Redis{log: serviceLog, rdb: rdb}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.rdb.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.rdb.Set(ctx, key, value, ttl).Err()
}

// Client exposes the underlying connection for the rate limiter.
func (r *Redis) Client() *goredis.Client { return r.rdb }

func (r *Redis) Ping(ctx context.Context) error { return r.rdb.Ping(ctx).Err() }

func (r *Redis) Close() error { return r.rdb.Close() }
