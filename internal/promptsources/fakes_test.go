package promptsources

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/yungbote/tilegen-backend/internal/domain/prompt"
	"github.com/yungbote/tilegen-backend/internal/providers"
)

type memSource struct {
	name    string
	raw     string
	version string
	readErr error
}

func (m *memSource) Name() string { return m.name }
func (m *memSource) ReadAll(context.Context) ([]byte, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	return []byte(m.raw), nil
}
func (m *memSource) Version(context.Context) string { return m.version }

type mapCache struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newMapCache() *mapCache {
	return &mapCache{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (c *mapCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.ttls[key] = ttl
	return nil
}

func (c *mapCache) keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.data))
	for k := range c.data {
		out = append(out, k)
	}
	return out
}

// fakeProvider implements every capability and counts calls.
type fakeProvider struct {
	mu        sync.Mutex
	name      string
	options   []prompt.Option
	entities  map[string]prompt.ResolvedEntity
	err       error
	searches  int
	dependent int
	resolved  [][]string
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Search(context.Context, prompt.SearchParam, providers.OptionContext) ([]prompt.Option, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches++
	return f.options, f.err
}

func (f *fakeProvider) Dependent(context.Context, prompt.DependentParam, providers.OptionContext) ([]prompt.Option, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dependent++
	return f.options, f.err
}

func (f *fakeProvider) Resolve(_ context.Context, ids []string, _ prompt.PromptSource) (map[string]prompt.ResolvedEntity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolved = append(f.resolved, ids)
	return f.entities, f.err
}

var errUpstream = errors.New("upstream down")
