package cache

import (
	"context"
	"testing"
	"time"
)

func TestJSONHelpersWithNilCache(t *testing.T) {
	ctx := context.Background()
	var dst []string
	hit, err := GetJSON(ctx, nil, "k", &dst)
	if err != nil || hit {
		t.Fatalf("nil cache get: want miss got hit=%v err=%v", hit, err)
	}
	if err := SetJSON(ctx, nil, "k", []string{"a"}, time.Minute); err != nil {
		t.Fatalf("nil cache set: %v", err)
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if err := SetJSON(ctx, m, "templates:list:1", []string{"a", "b"}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	var got []string
	hit, err := GetJSON(ctx, m, "templates:list:1", &got)
	if err != nil || !hit {
		t.Fatalf("get: hit=%v err=%v", hit, err)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("value: want=[a b] got=%v", got)
	}
	if hit, _ := GetJSON(ctx, m, "templates:list:2", &got); hit {
		t.Fatalf("expected miss for other version")
	}
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_ = m.Set(ctx, "short", "v", 20*time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	if _, ok, _ := m.Get(ctx, "short"); ok {
		t.Fatalf("expected entry to expire")
	}
}
