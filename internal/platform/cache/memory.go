package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const memoryCleanupInterval = 5 * time.Minute

// Memory is an in-process Cache used when no Redis address is configured.
type Memory struct {
	store *gocache.Cache
}

func NewMemory() *Memory {
	return &Memory{store: gocache.New(10*time.Minute, memoryCleanupInterval)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.store.Get(key)
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	return s, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	m.store.Set(key, value, ttl)
	return nil
}
