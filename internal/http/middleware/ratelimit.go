package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/tilegen-backend/internal/http/response"
	"github.com/yungbote/tilegen-backend/internal/observability"
	"github.com/yungbote/tilegen-backend/internal/platform/ctxutil"
	"github.com/yungbote/tilegen-backend/internal/platform/logger"
	"github.com/yungbote/tilegen-backend/internal/platform/ratelimit"
)

// RateRule limits Scope to Limit hits per Window for each identity KeyBy
// returns. LimitFn and WindowFn, when set, are read on every request and
// override Limit and Window. A limit of zero or less lets every request
// through; a window of zero or less falls back to one minute.
type RateRule struct {
	Scope    string
	Limit    int
	LimitFn  func() int
	Window   time.Duration
	WindowFn func() time.Duration
	KeyBy    func(c *gin.Context) string
}

// KeyByIP identifies callers by client address.
func KeyByIP(c *gin.Context) string {
	if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil && rd.ClientIP != "" {
		return rd.ClientIP
	}
	return ClientIP(c)
}

// KeyByUser identifies authenticated callers; it must run after RequireAuth.
func KeyByUser(c *gin.Context) string {
	if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil {
		return rd.UserID.String()
	}
	return KeyByIP(c)
}

type RateLimiter struct {
	log     *logger.Logger
	limiter ratelimit.Limiter
	metrics *observability.Metrics
}

func NewRateLimiter(log *logger.Logger, limiter ratelimit.Limiter, metrics *observability.Metrics) *RateLimiter {
	return &RateLimiter{log: log.With("Middleware", "RateLimiter"), limiter: limiter, metrics: metrics}
}

// Limit enforces rule. Limiter errors let the request through.
func (rl *RateLimiter) Limit(rule RateRule) gin.HandlerFunc {
	keyBy := rule.KeyBy
	if keyBy == nil {
		keyBy = KeyByIP
	}
	return func(c *gin.Context) {
		if rl == nil || rl.limiter == nil {
			c.Next()
			return
		}
		limit := rule.Limit
		if rule.LimitFn != nil {
			limit = rule.LimitFn()
		}
		if limit <= 0 {
			c.Next()
			return
		}
		window := rule.Window
		if rule.WindowFn != nil {
			window = rule.WindowFn()
		}
		if window <= 0 {
			window = time.Minute
		}
		key := rule.Scope + ":" + keyBy(c)
		d, err := rl.limiter.Allow(c.Request.Context(), key, limit, window)
		if err != nil {
			rl.log.Warn("rate limiter unavailable, allowing request", "scope", rule.Scope, "error", err)
			c.Next()
			return
		}
		if !d.Allowed {
			rl.metrics.IncRateLimited(rule.Scope)
			response.RespondRateLimited(c, d.RetryAfter)
			return
		}
		c.Next()
	}
}
