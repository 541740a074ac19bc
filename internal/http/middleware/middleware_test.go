package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/tilegen-backend/internal/observability"
	"github.com/yungbote/tilegen-backend/internal/platform/ctxutil"
	"github.com/yungbote/tilegen-backend/internal/platform/logger"
	"github.com/yungbote/tilegen-backend/internal/platform/ratelimit"
)

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string, int, time.Duration) (ratelimit.Decision, error) {
	return ratelimit.Decision{}, errors.New("redis down")
}

func TestClientIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"forwarded", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1", "X-Real-IP": "10.0.0.2"}, "203.0.113.5"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.4"}, "198.51.100.4"},
		{"socket", nil, "192.0.2.1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tc.headers {
				c.Request.Header.Set(k, v)
			}
			if got := ClientIP(c); got != tc.want {
				t.Fatalf("ClientIP: want=%q got=%q", tc.want, got)
			}
		})
	}
}

func limitedRouter(rl *RateLimiter, rule RateRule) *gin.Engine {
	r := gin.New()
	r.Use(AttachRequestContext())
	r.GET("/x", rl.Limit(rule), func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRateLimitRejectsWithRetryAfter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(logger.NewNop(), ratelimit.NewMemory(), nil)
	r := limitedRouter(rl, RateRule{Scope: "palettes", Limit: 2, Window: time.Minute})

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.9")
		last = httptest.NewRecorder()
		r.ServeHTTP(last, req)
		codes = append(codes, last.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes: want=[200 200 429] got=%v", codes)
	}
	if last.Header().Get("Retry-After") == "" {
		t.Fatalf("Retry-After: missing")
	}

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.10")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("other ip: want=200 got=%d", rec.Code)
	}
}

func TestRateLimitFailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(logger.NewNop(), failingLimiter{}, nil)
	r := limitedRouter(rl, RateRule{Scope: "palettes", Limit: 1, Window: time.Minute})
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("fail open: want=200 got=%d", rec.Code)
		}
	}
}

func TestAttachRequestContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachRequestContext())
	var got *ctxutil.RequestData
	r.GET("/x", func(c *gin.Context) {
		got = ctxutil.GetRequestData(c.Request.Context())
	})
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("User-Agent", "tiles-test")
	req.Header.Set("X-Real-IP", "198.51.100.1")
	r.ServeHTTP(httptest.NewRecorder(), req)
	if got == nil || got.ClientIP != "198.51.100.1" || got.UserAgent != "tiles-test" {
		t.Fatalf("request data: got=%+v", got)
	}
}

func TestAttachRequestContextRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachRequestContext())
	var got *ctxutil.RequestData
	r.GET("/x", func(c *gin.Context) {
		got = ctxutil.GetRequestData(c.Request.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if got.RequestID != "abc-123" || rec.Header().Get("X-Request-Id") != "abc-123" {
		t.Fatalf("kept id: want=abc-123 got=%q header=%q", got.RequestID, rec.Header().Get("X-Request-Id"))
	}
	if got.TraceID == "" || rec.Header().Get("X-Trace-Id") != got.TraceID {
		t.Fatalf("trace id: got=%q header=%q", got.TraceID, rec.Header().Get("X-Trace-Id"))
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "bad id\nwith newline")
	r.ServeHTTP(httptest.NewRecorder(), req)
	if got.RequestID == "" || got.RequestID == "bad id\nwith newline" {
		t.Fatalf("replaced id: got=%q", got.RequestID)
	}
}

func TestMetricsRouteLabels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := observability.NewMetrics()
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/healthcheck", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/api/templates/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/healthcheck", "/api/templates/a", "/api/templates/b", "/wp-login.php"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`tg_api_requests_total{method="GET",route="/api/templates/:id",status="200"} 2`,
		`tg_api_requests_total{method="GET",route="unmatched",status="404"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("metrics: want line %q in\n%s", want, out)
		}
	}
	if strings.Contains(out, "/healthcheck") {
		t.Fatalf("metrics: probe route recorded\n%s", out)
	}
}
