package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/tilegen-backend/internal/platform/ctxutil"
	"github.com/yungbote/tilegen-backend/internal/platform/logger"
)

// quietRoutes log at Debug when they succeed; probes hit them constantly.
var quietRoutes = map[string]bool{
	"/healthcheck": true,
	"/readyz":      true,
}

// RequestLogger writes one line per request. Routes carrying a template id
// log it as template_id.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		fields := []interface{}{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if id := c.Param("id"); id != "" {
			fields = append(fields, "template_id", id)
		}
		if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil {
			fields = append(fields, "request_id", rd.RequestID, "trace_id", rd.TraceID, "client_ip", rd.ClientIP)
			if rd.Authenticated() {
				fields = append(fields, "user_id", rd.UserID.String())
			}
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate); len(errs) > 0 {
			fields = append(fields, "error", errs.String())
		}

		switch {
		case status >= 500:
			log.Error("request", fields...)
		case status >= 400:
			log.Warn("request", fields...)
		case quietRoutes[route]:
			log.Debug("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}
