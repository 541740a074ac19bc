package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yungbote/tilegen-backend/internal/platform/logger"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("http addr: want=:8080 got=%s", cfg.HTTPAddr)
	}
	if cfg.ImageFormat != "webp" || cfg.ImageModel != "gpt-image-1" || cfg.ImageSize != "1024x1024" {
		t.Fatalf("image defaults: got=%s %s %s", cfg.ImageModel, cfg.ImageSize, cfg.ImageFormat)
	}
	if cfg.ProviderTimeout != 8*time.Second {
		t.Fatalf("provider timeout: want=8s got=%v", cfg.ProviderTimeout)
	}
	if cfg.RateLimits.Generate != 10 || cfg.RateLimits.GenerateWindow != time.Hour {
		t.Fatalf("generate limit: got=%+v", cfg.RateLimits)
	}
	if cfg.RateLimits.PromptOptions != 60 || cfg.RateLimits.Palettes != 30 {
		t.Fatalf("limits: got=%+v", cfg.RateLimits)
	}
	if cfg.IsProduction() {
		t.Fatalf("default env should not be production")
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("GENERATE_RATE_LIMIT", "3")
	t.Setenv("ACCESS_TOKEN_TTL", "15m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test, https://b.test,")
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.IsProduction() || cfg.HTTPAddr != ":9999" {
		t.Fatalf("env overrides: got env=%s addr=%s", cfg.Env, cfg.HTTPAddr)
	}
	if cfg.RateLimits.Generate != 3 {
		t.Fatalf("generate limit: want=3 got=%d", cfg.RateLimits.Generate)
	}
	if cfg.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("ttl: want=15m got=%v", cfg.AccessTokenTTL)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.test" {
		t.Fatalf("cors: got=%v", cfg.CORSOrigins)
	}
}

func TestConfigFileAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tilegen.yaml")
	if err := os.WriteFile(path, []byte("http_addr: \":7000\"\npalettes_rate_limit: 5\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	mgr, err := NewConfigManager(path)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	if mgr.Config().HTTPAddr != ":7000" {
		t.Fatalf("file addr: want=:7000 got=%s", mgr.Config().HTTPAddr)
	}
	if got := mgr.RateLimits().Palettes; got != 5 {
		t.Fatalf("palettes limit: want=5 got=%d", got)
	}

	if err := os.WriteFile(path, []byte("http_addr: \":7001\"\npalettes_rate_limit: 9\n"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if err := mgr.v.ReadInConfig(); err != nil {
		t.Fatalf("reread: %v", err)
	}
	mgr.reload(logger.NewNop())
	if got := mgr.RateLimits().Palettes; got != 9 {
		t.Fatalf("reloaded limit: want=9 got=%d", got)
	}
	if mgr.Config().HTTPAddr != ":7000" {
		t.Fatalf("listen addr must not change live: got=%s", mgr.Config().HTTPAddr)
	}
}

func TestConfigSources(t *testing.T) {
	_, _, file, err := configSources(Config{ConfigSource: "file", TemplatesPath: "data/prompt-templates.json"}, Clients{})
	if err != nil || file == nil {
		t.Fatalf("file source: err=%v file=%v", err, file)
	}
	if _, _, _, err := configSources(Config{ConfigSource: "gcs"}, Clients{}); err == nil {
		t.Fatalf("gcs without bucket should fail")
	}
	if _, _, _, err := configSources(Config{ConfigSource: "s3"}, Clients{}); err == nil {
		t.Fatalf("unknown source should fail")
	}
}
