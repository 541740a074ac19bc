package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/tilegen-backend/internal/http/handlers"
	httpMW "github.com/yungbote/tilegen-backend/internal/http/middleware"
	"github.com/yungbote/tilegen-backend/internal/observability"
	"github.com/yungbote/tilegen-backend/internal/platform/logger"
)

// RateLimits holds the per-window budgets for the throttled routes.
// A zero limit disables the rule.
type RateLimits struct {
	PromptOptions  int
	Palettes       int
	Generate       int
	GenerateWindow time.Duration
}

func DefaultRateLimits() RateLimits {
	return RateLimits{PromptOptions: 60, Palettes: 30, Generate: 10, GenerateWindow: time.Hour}
}

// RateLimitSource is consulted on every throttled request so budgets can
// change while the server runs.
type RateLimitSource func() RateLimits

func StaticRateLimits(l RateLimits) RateLimitSource {
	return func() RateLimits { return l }
}

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	Metrics     *observability.Metrics
	RateLimiter *httpMW.RateLimiter
	RateLimits  RateLimitSource

	AuthMiddleware *httpMW.AuthMiddleware

	TemplateHandler *httpH.TemplateHandler
	PromptHandler   *httpH.PromptHandler
	PaletteHandler  *httpH.PaletteHandler
	GenerateHandler *httpH.GenerateHandler
	HealthHandler   *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Log
	if log == nil {
		log = logger.NewNop()
	}
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "tilegen-api"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachRequestContext())
	r.Use(httpMW.RequestLogger(log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}

	limits := cfg.RateLimits
	if limits == nil {
		limits = StaticRateLimits(DefaultRateLimits())
	}
	limit := func(scope string, n func(RateLimits) int, window func(RateLimits) time.Duration, keyBy func(*gin.Context) string) gin.HandlerFunc {
		return cfg.RateLimiter.Limit(httpMW.RateRule{
			Scope:    scope,
			LimitFn:  func() int { return n(limits()) },
			WindowFn: func() time.Duration { return window(limits()) },
			KeyBy:    keyBy,
		})
	}
	perMinute := func(RateLimits) time.Duration { return time.Minute }
	generateWindow := func(l RateLimits) time.Duration {
		if l.GenerateWindow <= 0 {
			return time.Hour
		}
		return l.GenerateWindow
	}

	api := r.Group("/api")
	{
		// Templates (public)
		if cfg.TemplateHandler != nil {
			api.GET("/templates", cfg.TemplateHandler.ListTemplates)
			api.GET("/templates/:id", cfg.TemplateHandler.GetTemplate)
		}

		// Palettes (public, per-IP limited)
		if cfg.PaletteHandler != nil {
			api.GET("/prompts/:id/palettes",
				limit("palettes", func(l RateLimits) int { return l.Palettes }, perMinute, httpMW.KeyByIP),
				cfg.PaletteHandler.Suggest)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Prompts
		if cfg.PromptHandler != nil {
			protected.GET("/prompts", cfg.PromptHandler.ListPrompts)
			protected.GET("/prompts/:id/options",
				limit("prompt-options", func(l RateLimits) int { return l.PromptOptions }, perMinute, httpMW.KeyByIP),
				cfg.PromptHandler.Options)
			protected.GET("/prompts/:id/debug", cfg.PromptHandler.Debug)
		}

		// Generation
		if cfg.GenerateHandler != nil {
			protected.POST("/ai/generate",
				limit("ai-generate", func(l RateLimits) int { return l.Generate }, generateWindow, httpMW.KeyByUser),
				cfg.GenerateHandler.Generate)
		}
	}

	return r
}
