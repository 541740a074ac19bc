package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/tilegen-backend/internal/platform/logger"
)

type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

type ImageRequest struct {
	Model        string
	Prompt       string
	Size         string
	OutputFormat string
	Background   string
}

type ImageGeneration struct {
	Bytes         []byte
	MimeType      string
	RevisedPrompt string
}

// Client generates images. Requests are sent once; callers decide what a
// failure means for them.
type Client interface {
	GenerateImage(ctx context.Context, req ImageRequest) (ImageGeneration, error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	return &client{
		log:        log.With("service", "OpenAIClient"),
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

type imagesGenerationRequest struct {
	Model        string `json:"model"`
	Prompt       string `json:"prompt"`
	N            int    `json:"n"`
	Size         string `json:"size,omitempty"`
	OutputFormat string `json:"output_format,omitempty"`
	Background   string `json:"background,omitempty"`
}

type imagesGenerationResponse struct {
	Data []struct {
		B64JSON       string `json:"b64_json"`
		RevisedPrompt string `json:"revised_prompt"`
	} `json:"data"`
}

func (c *client) GenerateImage(ctx context.Context, in ImageRequest) (ImageGeneration, error) {
	var out ImageGeneration
	prompt := strings.TrimSpace(in.Prompt)
	if prompt == "" {
		return out, errors.New("image prompt required")
	}
	if strings.TrimSpace(in.Model) == "" {
		return out, errors.New("image model required")
	}

	ctx, span := otel.Tracer("openai").Start(ctx, "openai.images.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("openai.model", in.Model),
		attribute.String("openai.size", in.Size),
	)

	req := imagesGenerationRequest{
		Model:        in.Model,
		Prompt:       prompt,
		N:            1,
		Size:         strings.TrimSpace(in.Size),
		OutputFormat: strings.TrimSpace(in.OutputFormat),
		Background:   strings.TrimSpace(in.Background),
	}
	start := time.Now()
	var resp imagesGenerationResponse
	if err := c.do(ctx, http.MethodPost, "/v1/images/generations", req, &resp); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "image generation failed")
		c.log.Warn("image generation failed", "model", in.Model, "duration_ms", time.Since(start).Milliseconds(), "error", err)
		return out, err
	}
	if len(resp.Data) == 0 {
		return out, errors.New("no image returned")
	}
	item := resp.Data[0]
	b64 := strings.TrimSpace(item.B64JSON)
	if b64 == "" {
		return out, errors.New("image response missing b64_json")
	}
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil || len(raw) == 0 {
		return out, fmt.Errorf("decode image base64: %w", err)
	}
	out.Bytes = raw
	out.MimeType = mimeForFormat(req.OutputFormat)
	out.RevisedPrompt = strings.TrimSpace(item.RevisedPrompt)
	c.log.Info("image generated", "model", in.Model, "bytes", len(raw), "duration_ms", time.Since(start).Milliseconds())
	return out, nil
}

func mimeForFormat(format string) string {
	switch strings.ToLower(format) {
	case "webp":
		return "image/webp"
	case "jpg", "jpeg":
		return "image/jpeg"
	default:
		return "image/png"
	}
}

func (c *client) do(ctx context.Context, method, path string, body any, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("openai decode error: %w", err)
	}
	return nil
}
