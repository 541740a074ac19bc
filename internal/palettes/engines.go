package palettes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	defaultMode  = "analogic"
	defaultCount = 5
)

// Engine returns raw candidate colors for a seed color. Callers treat an
// error or an empty result as "no palette".
type Engine interface {
	Name() string
	Colors(ctx context.Context, seedHex, mode string, count int) ([]string, error)
}

type EngineConfig struct {
	BaseURL string
	Timeout time.Duration
}

func httpClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

type TheColorAPI struct {
	baseURL string
	client  *http.Client
}

func NewTheColorAPI(cfg EngineConfig) *TheColorAPI {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://www.thecolorapi.com"
	}
	return &TheColorAPI{baseURL: base, client: httpClient(cfg.Timeout)}
}

func (e *TheColorAPI) Name() string { return "thecolorapi" }

func (e *TheColorAPI) Colors(ctx context.Context, seedHex, mode string, count int) ([]string, error) {
	if mode == "" {
		mode = defaultMode
	}
	if count <= 0 {
		count = defaultCount
	}
	ctx, span := otel.Tracer("palettes").Start(ctx, "thecolorapi.scheme")
	defer span.End()
	span.SetAttributes(attribute.String("palette.mode", mode), attribute.Int("palette.count", count))

	q := url.Values{}
	q.Set("hex", strings.TrimPrefix(seedHex, "#"))
	q.Set("mode", mode)
	q.Set("count", strconv.Itoa(count))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/scheme?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Colors []struct {
			Hex struct {
				Value string `json:"value"`
			} `json:"hex"`
		} `json:"colors"`
	}
	if err := doJSON(e.client, req, &resp); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scheme request failed")
		return nil, err
	}
	out := make([]string, 0, len(resp.Colors))
	for _, c := range resp.Colors {
		if c.Hex.Value != "" {
			out = append(out, c.Hex.Value)
		}
	}
	return out, nil
}

// Colormind ignores the seed; its default model returns a fresh palette on
// every call.
type Colormind struct {
	baseURL string
	client  *http.Client
}

func NewColormind(cfg EngineConfig) *Colormind {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "http://colormind.io"
	}
	return &Colormind{baseURL: base, client: httpClient(cfg.Timeout)}
}

func (e *Colormind) Name() string { return "colormind" }

func (e *Colormind) Colors(ctx context.Context, _ string, _ string, _ int) ([]string, error) {
	ctx, span := otel.Tracer("palettes").Start(ctx, "colormind.generate")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/", bytes.NewReader([]byte(`{"model":"default"}`)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	var resp struct {
		Result [][]int `json:"result"`
	}
	if err := doJSON(e.client, req, &resp); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "colormind request failed")
		return nil, err
	}
	out := make([]string, 0, len(resp.Result))
	for _, rgb := range resp.Result {
		if len(rgb) == 3 {
			out = append(out, rgbToHex(rgb))
		}
	}
	return out, nil
}

func doJSON(client *http.Client, req *http.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s http %d: %s", req.URL.Host, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", req.URL.Host, err)
	}
	return nil
}
