package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/tilegen-backend/internal/platform/cache"
	"github.com/yungbote/tilegen-backend/internal/platform/gcp"
	"github.com/yungbote/tilegen-backend/internal/platform/logger"
	"github.com/yungbote/tilegen-backend/internal/platform/openai"
	"github.com/yungbote/tilegen-backend/internal/platform/ratelimit"
)

type Clients struct {
	Cache   cache.Cache
	Limiter ratelimit.Limiter
	Redis   *cache.Redis
	Bucket  gcp.BucketService
	OpenAI  openai.Client
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	// Redis, or the in-process fallbacks
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		r, err := cache.NewRedis(ctx, log, cfg.RedisAddr)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis: %w", err)
		}
		out.Redis = r
		out.Cache = r
		out.Limiter = ratelimit.NewRedis(r.Client())
	} else {
		log.Warn("REDIS_ADDR not set, using in-memory cache and rate limiter")
		out.Cache = cache.NewMemory()
		out.Limiter = ratelimit.NewMemory()
	}

	// Gcs
	storageCfg, err := gcp.ResolveObjectStorageConfig(cfg.ObjectStorageMode, gcp.ObjectStorageConfig{
		EmulatorHost:  cfg.StorageEmulator,
		PublicBaseURL: cfg.StoragePublicURL,
		TileBucket:    cfg.TileBucket,
		TileCDNDomain: cfg.TileCDNDomain,
		ConfigBucket:  cfg.ConfigBucket,
		Credentials:   cfg.GCPCredentials,
	})
	if err != nil {
		out.Close()
		return Clients{}, fmt.Errorf("object storage config: %w", err)
	}
	bucket, err := gcp.NewBucketService(ctx, log, storageCfg)
	if err != nil {
		out.Close()
		return Clients{}, fmt.Errorf("init bucket client: %w", err)
	}
	out.Bucket = bucket

	// Openai
	oa, err := openai.NewClient(log, openai.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Timeout: cfg.OpenAITimeout,
	})
	if err != nil {
		out.Close()
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}
	out.OpenAI = oa

	return out, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
