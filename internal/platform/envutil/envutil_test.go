package envutil

import (
	"testing"
	"time"
)

func TestDuration(t *testing.T) {
	t.Setenv("X_TIMEOUT", "8s")
	if got := Duration("X_TIMEOUT", time.Second); got != 8*time.Second {
		t.Fatalf("duration string: want=%v got=%v", 8*time.Second, got)
	}
	t.Setenv("X_TIMEOUT", "12")
	if got := Duration("X_TIMEOUT", time.Second); got != 12*time.Second {
		t.Fatalf("bare seconds: want=%v got=%v", 12*time.Second, got)
	}
	t.Setenv("X_TIMEOUT", "soon")
	if got := Duration("X_TIMEOUT", time.Second); got != time.Second {
		t.Fatalf("invalid falls back: want=%v got=%v", time.Second, got)
	}
}

func TestBoolAndInt(t *testing.T) {
	t.Setenv("X_FLAG", "on")
	if !Bool("X_FLAG", false) {
		t.Fatalf("expected on to parse as true")
	}
	t.Setenv("X_FLAG", "maybe")
	if Bool("X_FLAG", false) {
		t.Fatalf("expected unknown value to use default")
	}
	t.Setenv("X_NUM", " 42 ")
	if got := Int("X_NUM", 1); got != 42 {
		t.Fatalf("int: want=%d got=%d", 42, got)
	}
	if got := String("X_MISSING", "fallback"); got != "fallback" {
		t.Fatalf("string default: want=%q got=%q", "fallback", got)
	}
}
