package templates

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/tilegen-backend/internal/platform/logger"
)

type memSource struct {
	name    string
	raw     string
	version string
	reads   int
}

func (m *memSource) Name() string { return m.name }
func (m *memSource) ReadAll(context.Context) ([]byte, error) {
	m.reads++
	return []byte(m.raw), nil
}
func (m *memSource) Version(context.Context) string { return m.version }

type recordingCache struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newRecordingCache() *recordingCache {
	return &recordingCache{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (c *recordingCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *recordingCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.ttls[key] = ttl
	return nil
}

const validDoc = `[
  {
    "id": "city-tile",
    "name": "City tile",
    "paramsSchema": {
      "cityId": {"type": "string", "regex": "^Q[0-9]+$"},
      "style": {"type": "string", "enum": ["flat", "ink"]},
      "crayonColors": {"type": "array", "maxItems": 5, "items": {"type": "string", "regex": "^#[0-9a-fA-F]{3,6}$"}}
    },
    "defaults": {"style": "flat"},
    "promptTemplate": "Draw a seamless city tile."
  },
  {
    "id": "space",
    "name": "Space",
    "paramsSchema": {"themeKey": {"type": "string", "enum": ["space", "ocean"]}},
    "themeOptions": {"space": "stars and planets", "ocean": "waves"},
    "promptTemplate": "Draw a seamless theme tile."
  }
]`

func TestStoreListAndGet(t *testing.T) {
	ctx := context.Background()
	src := &memSource{name: "prompt-templates.json", raw: validDoc, version: "100"}
	c := newRecordingCache()
	s := NewStore(logger.NewNop(), src, c)

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("list len: want=2 got=%d", len(list))
	}
	if _, ok := c.data["templates:list:100"]; !ok {
		t.Fatalf("expected list cached under versioned key, got keys=%v", c.data)
	}
	if c.ttls["templates:list:100"] != 600*time.Second {
		t.Fatalf("ttl: want=600s got=%v", c.ttls["templates:list:100"])
	}

	tpl, err := s.Get(ctx, "space")
	if err != nil || tpl == nil || tpl.ID != "space" {
		t.Fatalf("get space: tpl=%v err=%v", tpl, err)
	}
	if _, ok := c.data["templates:item:space:100"]; !ok {
		t.Fatalf("expected template cached under templates:item:space:100")
	}
	if src.reads != 1 {
		t.Fatalf("reads: want=1 got=%d", src.reads)
	}

	missing, err := s.Get(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("unknown id: want nil,nil got=%v,%v", missing, err)
	}
}

func TestStoreItemKeyDoesNotShadowList(t *testing.T) {
	ctx := context.Background()
	doc := strings.Replace(validDoc, `"id": "space"`, `"id": "list"`, 1)
	src := &memSource{name: "t.json", raw: doc, version: "3"}
	s := NewStore(logger.NewNop(), src, newRecordingCache())

	tpl, err := s.Get(ctx, "list")
	if err != nil || tpl == nil || tpl.ID != "list" {
		t.Fatalf("get list: tpl=%v err=%v", tpl, err)
	}
	all, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("list len: want=2 got=%d", len(all))
	}
	again, err := s.Get(ctx, "list")
	if err != nil || again == nil || again.ID != "list" {
		t.Fatalf("get list again: tpl=%v err=%v", again, err)
	}
	if src.reads != 1 {
		t.Fatalf("reads: want=1 got=%d", src.reads)
	}
}

func TestStoreVersionChangeRereads(t *testing.T) {
	ctx := context.Background()
	src := &memSource{name: "t.json", raw: validDoc, version: "1"}
	s := NewStore(logger.NewNop(), src, newRecordingCache())
	if _, err := s.List(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}
	src.version = "2"
	if _, err := s.List(ctx); err != nil {
		t.Fatalf("list after edit: %v", err)
	}
	if src.reads != 2 {
		t.Fatalf("reads: want=2 got=%d", src.reads)
	}
}

func TestStoreCacheHitSkipsValidation(t *testing.T) {
	ctx := context.Background()
	src := &memSource{name: "t.json", raw: `not json`, version: "7"}
	c := newRecordingCache()
	c.data["templates:list:7"] = `[{"id":"cached","name":"Cached","paramsSchema":{},"promptTemplate":"{{raw}}"}]`
	s := NewStore(logger.NewNop(), src, c)

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != "cached" || src.reads != 0 {
		t.Fatalf("expected cached list without reading source, got=%v reads=%d", list, src.reads)
	}
}

func TestStoreFailsWholeDocumentOnOneBadTemplate(t *testing.T) {
	bad := strings.Replace(validDoc, "Draw a seamless theme tile.", "Draw {{themeKey}}.", 1)
	s := NewStore(logger.NewNop(), &memSource{name: "t.json", raw: bad, version: "1"}, nil)

	_, err := s.List(context.Background())
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("want LoadError got=%v", err)
	}
	if le.TemplateID != "space" || le.Source != "t.json" {
		t.Fatalf("load error fields: %+v", le)
	}
	if _, err := s.Get(context.Background(), "city-tile"); err == nil {
		t.Fatalf("valid sibling must not be served from an invalid document")
	}
}

func TestStoreWithoutCache(t *testing.T) {
	src := &memSource{name: "t.json", raw: validDoc, version: "0"}
	s := NewStore(logger.NewNop(), src, nil)
	for i := 0; i < 2; i++ {
		if _, err := s.List(context.Background()); err != nil {
			t.Fatalf("list: %v", err)
		}
	}
	if src.reads != 2 {
		t.Fatalf("reads without cache: want=2 got=%d", src.reads)
	}
}
