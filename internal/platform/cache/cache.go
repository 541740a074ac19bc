package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Cache is the shared key/value store used for read-through caching of
// templates, prompt sources, resolved options and palettes. A nil Cache is
// valid everywhere and behaves as an always-miss store.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// GetJSON decodes the cached value for key into dst. It reports false on a
// miss, including when c is nil.
func GetJSON(ctx context.Context, c Cache, key string, dst any) (bool, error) {
	if c == nil {
		return false, nil
	}
	raw, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, err
	}
	return true, nil
}

func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, string(b), ttl)
}
