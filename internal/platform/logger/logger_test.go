package logger

import (
	"strings"
	"testing"
)

func TestSanitizeKVsRedactsAndHashes(t *testing.T) {
	out := sanitizeKVs([]interface{}{
		"api_key", "sk-live",
		"user_id", "6f1d",
		"template_id", "tile-basic",
	})
	if len(out) != 6 {
		t.Fatalf("len: want=6 got=%d", len(out))
	}
	if out[1] != "[REDACTED]" {
		t.Fatalf("api_key: want=[REDACTED] got=%v", out[1])
	}
	if s, _ := out[3].(string); !strings.HasPrefix(s, "hash:") {
		t.Fatalf("user_id: want hash prefix got=%v", out[3])
	}
	if out[5] != "tile-basic" {
		t.Fatalf("template_id: want passthrough got=%v", out[5])
	}
}

func TestSanitizeKVsOddLength(t *testing.T) {
	out := sanitizeKVs([]interface{}{"param", "cityId", "dangling"})
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("odd kv: got=%v", out)
	}
}
