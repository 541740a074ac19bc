package app

import (
	"github.com/yungbote/tilegen-backend/internal/data/repos"
	apphttp "github.com/yungbote/tilegen-backend/internal/http"
	httpH "github.com/yungbote/tilegen-backend/internal/http/handlers"
	httpMW "github.com/yungbote/tilegen-backend/internal/http/middleware"
	"github.com/yungbote/tilegen-backend/internal/observability"
	"github.com/yungbote/tilegen-backend/internal/platform/gcp"
	"github.com/yungbote/tilegen-backend/internal/platform/logger"
)

type Middleware struct {
	Auth      *httpMW.AuthMiddleware
	RateLimit *httpMW.RateLimiter
}

type Handlers struct {
	Health   *httpH.HealthHandler
	Template *httpH.TemplateHandler
	Prompt   *httpH.PromptHandler
	Palette  *httpH.PaletteHandler
	Generate *httpH.GenerateHandler
}

func wireHandlers(log *logger.Logger, cfg Config, services Services, reposet repos.Repos, clients Clients, metrics *observability.Metrics) Handlers {
	log.Info("Wiring handlers...")
	tileURL := func(key string) string { return clients.Bucket.GetPublicURL(gcp.BucketCategoryTile, key) }
	return Handlers{
		Health:   httpH.NewHealthHandler(),
		Template: httpH.NewTemplateHandler(log, services.Templates),
		Prompt: httpH.NewPromptHandler(log, httpH.PromptHandlerDeps{
			Templates:  services.Templates,
			Sources:    services.Sources,
			Options:    services.Options,
			Tiles:      reposet.Tile,
			TileURL:    tileURL,
			Production: cfg.IsProduction(),
		}),
		Palette:  httpH.NewPaletteHandler(log, services.Templates, services.Sources, services.Palettes, metrics),
		Generate: httpH.NewGenerateHandler(log, services.Generation),
	}
}

func wireMiddleware(log *logger.Logger, services Services, clients Clients, metrics *observability.Metrics) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth:      httpMW.NewAuthMiddleware(log, services.Auth),
		RateLimit: httpMW.NewRateLimiter(log, clients.Limiter, metrics),
	}
}

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics, limits apphttp.RateLimitSource) *apphttp.Server {
	return apphttp.NewServer(apphttp.RouterConfig{
		Log:             log,
		ServiceName:     "tilegen-api",
		CORSOrigins:     cfg.CORSOrigins,
		Metrics:         metrics,
		RateLimiter:     middleware.RateLimit,
		RateLimits:      limits,
		AuthMiddleware:  middleware.Auth,
		TemplateHandler: handlers.Template,
		PromptHandler:   handlers.Prompt,
		PaletteHandler:  handlers.Palette,
		GenerateHandler: handlers.Generate,
		HealthHandler:   handlers.Health,
	})
}
