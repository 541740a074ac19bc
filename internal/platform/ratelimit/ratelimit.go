package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter admits at most limit hits per key within window.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error)
}

const keyPrefix = "ratelimit:"

// Redis is a fixed-window counter shared across instances.
type Redis struct {
	rdb *goredis.Client
}

func NewRedis(rdb *goredis.Client) *Redis { return &Redis{rdb: rdb} }

func (r *Redis) Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	if limit <= 0 {
		return Decision{Allowed: true}, nil
	}
	k := keyPrefix + key
	count, err := r.rdb.Incr(ctx, k).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("incr %s: %w", k, err)
	}
	if count == 1 {
		if err := r.rdb.PExpire(ctx, k, window).Err(); err != nil {
			return Decision{}, fmt.Errorf("pexpire %s: %w", k, err)
		}
	}
	ttl, err := r.rdb.PTTL(ctx, k).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("pttl %s: %w", k, err)
	}
	if ttl < 0 {
		// counter lost its expiry; restart the window
		_ = r.rdb.PExpire(ctx, k, window).Err()
		ttl = window
	}
	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	d := Decision{Allowed: int(count) <= limit, Remaining: remaining}
	if !d.Allowed {
		d.RetryAfter = ttl
	}
	return d, nil
}

// Memory keeps a token bucket per key. Idle buckets expire after two windows.
type Memory struct {
	mu    sync.Mutex
	store *gocache.Cache
}

func NewMemory() *Memory {
	return &Memory{store: gocache.New(time.Hour, 10*time.Minute)}
}

func (m *Memory) Allow(_ context.Context, key string, limit int, window time.Duration) (Decision, error) {
	if limit <= 0 {
		return Decision{Allowed: true}, nil
	}
	lim := m.limiterFor(key, limit, window)
	now := time.Now()
	if lim.AllowN(now, 1) {
		return Decision{Allowed: true, Remaining: int(lim.TokensAt(now))}, nil
	}
	res := lim.ReserveN(now, 1)
	delay := res.DelayFrom(now)
	res.CancelAt(now)
	return Decision{Allowed: false, RetryAfter: delay}, nil
}

func (m *Memory) limiterFor(key string, limit int, window time.Duration) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := fmt.Sprintf("%s%s:%d:%s", keyPrefix, key, limit, window)
	if v, ok := m.store.Get(k); ok {
		if lim, ok := v.(*rate.Limiter); ok {
			m.store.Set(k, lim, 2*window)
			return lim
		}
	}
	lim := rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit)
	m.store.Set(k, lim, 2*window)
	return lim
}
