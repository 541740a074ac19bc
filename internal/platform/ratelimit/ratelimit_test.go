package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryAllowsBurstThenBlocks(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for i := 0; i < 3; i++ {
		d, err := m.Allow(ctx, "ai-generate:u1", 3, time.Hour)
		if err != nil || !d.Allowed {
			t.Fatalf("hit %d: want allowed got=%+v err=%v", i, d, err)
		}
	}
	d, err := m.Allow(ctx, "ai-generate:u1", 3, time.Hour)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if d.Allowed {
		t.Fatalf("4th hit: want blocked")
	}
	if d.RetryAfter <= 0 {
		t.Fatalf("retry after: want >0 got=%v", d.RetryAfter)
	}
}

func TestMemoryKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if d, _ := m.Allow(ctx, "scope:a", 1, time.Hour); !d.Allowed {
		t.Fatalf("first key: want allowed")
	}
	if d, _ := m.Allow(ctx, "scope:b", 1, time.Hour); !d.Allowed {
		t.Fatalf("second key: want allowed")
	}
	if d, _ := m.Allow(ctx, "scope:a", 1, time.Hour); d.Allowed {
		t.Fatalf("first key again: want blocked")
	}
}

func TestZeroLimitDisables(t *testing.T) {
	d, err := NewMemory().Allow(context.Background(), "k", 0, time.Minute)
	if err != nil || !d.Allowed {
		t.Fatalf("zero limit: want allowed got=%+v err=%v", d, err)
	}
}
