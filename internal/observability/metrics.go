package observability

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/tilegen-backend/internal/platform/logger"
)

// Metrics is nil-safe: every method on a nil *Metrics is a no-op, so callers
// never check whether metrics are enabled.
type Metrics struct {
	apiRequests    *CounterVec
	apiLatency     *HistogramVec
	apiInflight    *Gauge
	generations    *CounterVec
	imageLatency   *HistogramVec
	providerCalls  *CounterVec
	paletteEngines *CounterVec
	rateLimited    *CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("tg_api_requests_total", "API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"tg_api_request_duration_seconds",
			"API request latency in seconds by method/route.",
			[]string{"method", "route"},
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		),
		apiInflight: NewGauge("tg_api_inflight_requests", "In-flight API requests."),
		generations: NewCounterVec("tg_generations_total", "Generate requests by template and outcome (generated, cached, cloned, failed).", []string{"template", "outcome"}),
		imageLatency: NewHistogramVec(
			"tg_image_generation_duration_seconds",
			"Image API latency in seconds by model/status.",
			[]string{"model", "status"},
			[]float64{1, 5, 10, 20, 30, 45, 60, 90, 120, 180},
		),
		providerCalls:  NewCounterVec("tg_provider_calls_total", "Option provider lookups by provider/outcome.", []string{"provider", "outcome"}),
		paletteEngines: NewCounterVec("tg_palette_requests_total", "Palette suggestions by engine/outcome.", []string{"engine", "outcome"}),
		rateLimited:    NewCounterVec("tg_rate_limited_total", "Requests rejected by the rate limiter by scope.", []string{"scope"}),
	}
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	m.apiRequests.Inc(strings.ToUpper(method), route, status)
	m.apiLatency.Observe(dur.Seconds(), strings.ToUpper(method), route)
}

func (m *Metrics) APIInflightInc() {
	if m != nil {
		m.apiInflight.Inc()
	}
}

func (m *Metrics) APIInflightDec() {
	if m != nil {
		m.apiInflight.Dec()
	}
}

func (m *Metrics) IncGeneration(templateID, outcome string) {
	if m != nil {
		m.generations.Inc(templateID, outcome)
	}
}

func (m *Metrics) ObserveImageRequest(model string, ok bool, dur time.Duration) {
	if m == nil {
		return
	}
	m.imageLatency.Observe(dur.Seconds(), model, strconv.FormatBool(ok))
}

func (m *Metrics) IncProviderCall(provider, outcome string) {
	if m != nil {
		m.providerCalls.Inc(provider, outcome)
	}
}

func (m *Metrics) IncPaletteRequest(engine, outcome string) {
	if m != nil {
		m.paletteEngines.Inc(engine, outcome)
	}
}

func (m *Metrics) IncRateLimited(scope string) {
	if m != nil {
		m.rateLimited.Inc(scope)
	}
}

// GenerationCount reports a counter value.
func (m *Metrics) GenerationCount(templateID, outcome string) float64 {
	if m == nil {
		return 0
	}
	return m.generations.Value(templateID, outcome)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.generations, m.imageLatency,
		m.providerCalls, m.paletteEngines, m.rateLimited,
	} {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

// StartServer serves /metrics on addr until ctx is done.
func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil || strings.TrimSpace(addr) == "" {
		return
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", m.WriteHTTP)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server failed", "error", err, "addr", addr)
		}
	}()
}
