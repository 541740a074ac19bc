package generation

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	_ "golang.org/x/image/webp"
	"gorm.io/datatypes"

	"github.com/yungbote/tilegen-backend/internal/data/repos"
	types "github.com/yungbote/tilegen-backend/internal/domain"
	"github.com/yungbote/tilegen-backend/internal/domain/prompt"
	"github.com/yungbote/tilegen-backend/internal/observability"
	"github.com/yungbote/tilegen-backend/internal/platform/apierr"
	"github.com/yungbote/tilegen-backend/internal/platform/gcp"
	"github.com/yungbote/tilegen-backend/internal/platform/logger"
	"github.com/yungbote/tilegen-backend/internal/platform/openai"
	"github.com/yungbote/tilegen-backend/internal/promptsources"
	"github.com/yungbote/tilegen-backend/internal/templates"
)

const maxArrayItems = 5

var (
	sizeRe         = regexp.MustCompile(`^\d+x\d+$`)
	allowedFormats = map[string]bool{"webp": true, "png": true, "jpg": true}
)

// Defaults apply when a template does not pin its own image settings.
type Defaults struct {
	Model        string
	Size         string
	OutputFormat string
	Background   string
}

type TemplateGetter interface {
	Get(ctx context.Context, id string) (*prompt.Template, error)
}

type SourceGetter interface {
	Get(ctx context.Context, id string) (*prompt.PromptSource, error)
}

type InputResolver interface {
	Resolve(ctx context.Context, req promptsources.InputRequest) (promptsources.InputResult, error)
}

type ObjectStore interface {
	UploadFile(ctx context.Context, category gcp.BucketCategory, key string, file io.Reader) error
	GetPublicURL(category gcp.BucketCategory, key string) string
}

type Request struct {
	TemplateID string
	Params     map[string]any
	UserID     uuid.UUID
	Username   string
	ClientIP   string
	UserAgent  string
}

type Result struct {
	TileID     uuid.UUID `json:"tileId"`
	DetailURL  string    `json:"detailUrl"`
	PreviewURL string    `json:"previewUrl"`
	Cached     bool      `json:"cached,omitempty"`
}

type Service struct {
	log       *logger.Logger
	templates TemplateGetter
	sources   SourceGetter
	inputs    InputResolver
	images    openai.Client
	store     ObjectStore
	tiles     repos.TileRepo
	events    repos.EventRepo
	metrics   *observability.Metrics
	defaults  Defaults
}

type Deps struct {
	Templates TemplateGetter
	Sources   SourceGetter
	Inputs    InputResolver
	Images    openai.Client
	Store     ObjectStore
	Tiles     repos.TileRepo
	Events    repos.EventRepo
	Metrics   *observability.Metrics
}

func NewService(log *logger.Logger, deps Deps, defaults Defaults) *Service {
	return &Service{
		log:       log.With("service", "GenerationService"),
		templates: deps.Templates,
		sources:   deps.Sources,
		inputs:    deps.Inputs,
		images:    deps.Images,
		store:     deps.Store,
		tiles:     deps.Tiles,
		events:    deps.Events,
		metrics:   deps.Metrics,
		defaults:  defaults,
	}
}

type theme struct {
	used  bool
	text  string
	label string
}

func resolveTheme(t prompt.Template, params map[string]any) (theme, error) {
	_, hasKey := params["themeKey"]
	_, hasText := params["themeText"]
	if len(t.ThemeOptions) == 0 || (!hasKey && !hasText) {
		return theme{}, nil
	}
	key := stringParam(params, "themeKey")
	input := strings.TrimSpace(stringParam(params, "themeText"))
	text := input
	if text == "" {
		text = t.ThemeOptions[key]
	}
	if text == "" {
		return theme{}, apierr.New(http.StatusBadRequest, "invalid_theme", errors.New("Invalid theme"))
	}
	label := input
	if label == "" {
		label = key
	}
	return theme{used: true, text: text, label: label}, nil
}

func stringParam(params map[string]any, key string) string {
	v, ok := params[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func (s *Service) settings(t prompt.Template) Defaults {
	pick := func(v, fallback string) string {
		if strings.TrimSpace(v) != "" {
			return v
		}
		return fallback
	}
	return Defaults{
		Model:        pick(t.Model, s.defaults.Model),
		Size:         pick(t.Size, s.defaults.Size),
		OutputFormat: pick(t.OutputFormat, s.defaults.OutputFormat),
		Background:   pick(t.Background, s.defaults.Background),
	}
}

// Generate produces a tile for req, reusing an earlier image whenever an
// equivalent request was already generated.
func (s *Service) Generate(ctx context.Context, req Request) (*Result, error) {
	ctx, span := otel.Tracer("generation").Start(ctx, "generation.generate")
	defer span.End()
	span.SetAttributes(attribute.String("template.id", req.TemplateID))

	res, outcome, err := s.generate(ctx, req)
	if err != nil {
		span.RecordError(err)
		if status, _ := apierr.From(err); status < http.StatusInternalServerError {
			outcome = "rejected"
		} else {
			outcome = "failed"
		}
	}
	span.SetAttributes(attribute.String("generation.outcome", outcome))
	s.metrics.IncGeneration(req.TemplateID, outcome)
	return res, err
}

func (s *Service) generate(ctx context.Context, req Request) (*Result, string, error) {
	span := trace.SpanFromContext(ctx)

	if strings.TrimSpace(req.TemplateID) == "" {
		return nil, "", apierr.New(http.StatusBadRequest, "invalid_request", errors.New("templateId required"))
	}
	tpl, err := s.templates.Get(ctx, req.TemplateID)
	if err != nil {
		return nil, "", fmt.Errorf("load template: %w", err)
	}
	if tpl == nil {
		return nil, "", apierr.New(http.StatusNotFound, "template_not_found", errors.New("Template not found"))
	}
	src, err := s.sources.Get(ctx, tpl.ID)
	if err != nil {
		return nil, "", fmt.Errorf("load prompt source: %w", err)
	}

	params := templates.ApplyDefaults(req.Params, tpl.Defaults)
	if err := templates.ValidateParams(*tpl, params); err != nil {
		if errors.Is(err, templates.ErrInvalidParams) {
			return nil, "", apierr.New(http.StatusBadRequest, "invalid_params", err)
		}
		return nil, "", err
	}

	th, err := resolveTheme(*tpl, params)
	if err != nil {
		return nil, "", err
	}
	for _, v := range params {
		if items, ok := templates.StringSlice(v); ok && len(items) > maxArrayItems {
			return nil, "", apierr.New(http.StatusBadRequest, "too_many_items", errors.New("Too many colors"))
		}
	}

	input := make(map[string]any, len(params)+1)
	for k, v := range params {
		input[k] = v
	}
	if th.used {
		input["themeDescription"] = th.text
	}
	resolved, err := s.inputs.Resolve(ctx, promptsources.InputRequest{Template: *tpl, Source: src, Params: input})
	if err != nil {
		return nil, "", apierr.New(http.StatusBadRequest, "invalid_input", err)
	}
	safeInput := resolved.SafeInput
	derived := templates.DeriveParams(safeInput)

	cfg := s.settings(*tpl)
	keyParams := params
	if th.used {
		keyParams = make(map[string]any, len(params)+1)
		for k, v := range params {
			keyParams[k] = v
		}
		keyParams["themeText"] = th.text
	}
	cacheKey, err := CacheKey(KeyInput{
		TemplateID:   tpl.ID,
		Model:        cfg.Model,
		Size:         cfg.Size,
		OutputFormat: cfg.OutputFormat,
		Background:   cfg.Background,
		Params:       NormalizeParams(*tpl, keyParams),
	})
	if err != nil {
		return nil, "", fmt.Errorf("build cache key: %w", err)
	}
	span.SetAttributes(attribute.String("generation.cache_key", cacheKey))

	renderParams := make(map[string]any, len(derived)+1)
	for k, v := range derived {
		renderParams[k] = v
	}
	renderParams["themeLabel"] = th.label
	title, description, tags := describe(*tpl, params, renderParams)

	meta := tileMeta{
		GeneratedBy: "openai",
		TemplateID:  tpl.ID,
		Params:      params,
		CacheKey:    cacheKey,
		Labels:      resolved.Labels,
	}
	if src != nil {
		meta.SourceVersion = src.Version
	}

	if res, outcome, err := s.fromCache(ctx, req, cacheKey, title, description, tags, meta); err != nil || res != nil {
		return res, outcome, err
	}

	w, h, err := parseSquareSize(cfg.Size)
	if err != nil {
		return nil, "", err
	}
	if !allowedFormats[cfg.OutputFormat] {
		return nil, "", apierr.New(http.StatusBadRequest, "invalid_output_format", errors.New("Invalid output format"))
	}

	promptText, err := BuildPrompt(*tpl, safeInput)
	if err != nil {
		return nil, "", fmt.Errorf("build prompt: %w", err)
	}
	started := time.Now()
	img, err := s.images.GenerateImage(ctx, openai.ImageRequest{
		Model:        cfg.Model,
		Prompt:       promptText,
		Size:         cfg.Size,
		OutputFormat: cfg.OutputFormat,
		Background:   cfg.Background,
	})
	s.metrics.ObserveImageRequest(cfg.Model, err == nil, time.Since(started))
	if err != nil {
		return nil, "", apierr.New(http.StatusBadGateway, "image_generation_failed", fmt.Errorf("OpenAI request failed: %w", err))
	}

	tileID := uuid.New()
	ext := cfg.OutputFormat
	masterKey := fmt.Sprintf("tiles/%s/master.%s", tileID, ext)
	if err := s.store.UploadFile(ctx, gcp.BucketCategoryTile, masterKey, bytes.NewReader(img.Bytes)); err != nil {
		return nil, "", fmt.Errorf("upload tile: %w", err)
	}

	width, height, format := w, h, ext
	if ic, f, err := image.DecodeConfig(bytes.NewReader(img.Bytes)); err == nil {
		width, height, format = ic.Width, ic.Height, f
		if format == "jpeg" {
			format = "jpg"
		}
	} else {
		s.log.Warn("image metadata unavailable", "tile_id", tileID, "error", err)
	}

	tile := &types.Tile{
		ID:          tileID,
		OwnerID:     req.UserID,
		TemplateID:  tpl.ID,
		Title:       title,
		Description: description,
		Tags:        jsonOrEmpty(tags, "[]"),
		CacheKey:    cacheKey,
		Width:       width,
		Height:      height,
		Format:      format,
		Seamless:    true,
		Visibility:  types.VisibilityPrivate,
		MasterKey:   masterKey,
		SizeBytes:   int64(len(img.Bytes)),
		Meta:        jsonOrEmpty(meta, "{}"),
	}
	if _, err := s.tiles.Create(ctx, nil, []*types.Tile{tile}); err != nil {
		return nil, "", fmt.Errorf("create tile: %w", err)
	}

	s.track(ctx, req, tileID, types.EventUpload, map[string]any{"generatedBy": "openai", "templateId": tpl.ID})
	s.track(ctx, req, tileID, types.EventAIGenerate, map[string]any{"templateId": tpl.ID, "model": cfg.Model})

	s.log.Info("tile generated", "tile_id", tileID, "template_id", tpl.ID, "model", cfg.Model, "size_bytes", len(img.Bytes))
	return &Result{
		TileID:     tileID,
		DetailURL:  DetailURL(req.Username, req.UserID, tileID, title),
		PreviewURL: s.store.GetPublicURL(gcp.BucketCategoryTile, masterKey),
	}, "generated", nil
}

type tileMeta struct {
	GeneratedBy   string            `json:"generatedBy"`
	TemplateID    string            `json:"templateId"`
	Params        map[string]any    `json:"params"`
	CacheKey      string            `json:"cacheKey"`
	Labels        map[string]string `json:"labels,omitempty"`
	SourceVersion string            `json:"sourceVersion,omitempty"`
	SourceTileID  string            `json:"sourceTileId,omitempty"`
}

// fromCache returns a result when cacheKey already produced an image. A tile
// owned by someone else is cloned for the caller; the object is shared.
func (s *Service) fromCache(ctx context.Context, req Request, cacheKey, title, description string, tags []string, meta tileMeta) (*Result, string, error) {
	own, err := s.tiles.GetByCacheKeyForOwner(ctx, nil, cacheKey, req.UserID)
	if err != nil {
		return nil, "", fmt.Errorf("lookup cached tile: %w", err)
	}
	if own != nil {
		return &Result{
			TileID:     own.ID,
			DetailURL:  DetailURL(req.Username, req.UserID, own.ID, own.Title),
			PreviewURL: s.store.GetPublicURL(gcp.BucketCategoryTile, own.MasterKey),
			Cached:     true,
		}, "cached", nil
	}

	existing, err := s.tiles.GetByCacheKey(ctx, nil, cacheKey)
	if err != nil {
		return nil, "", fmt.Errorf("lookup cached tile: %w", err)
	}
	if existing == nil {
		return nil, "", nil
	}

	meta.SourceTileID = existing.ID.String()
	clone := &types.Tile{
		OwnerID:     req.UserID,
		TemplateID:  existing.TemplateID,
		Title:       title,
		Description: description,
		Tags:        jsonOrEmpty(tags, "[]"),
		CacheKey:    cacheKey,
		Width:       existing.Width,
		Height:      existing.Height,
		Format:      existing.Format,
		Seamless:    true,
		Visibility:  types.VisibilityPrivate,
		MasterKey:   existing.MasterKey,
		SizeBytes:   existing.SizeBytes,
		Meta:        jsonOrEmpty(meta, "{}"),
	}
	if _, err := s.tiles.Create(ctx, nil, []*types.Tile{clone}); err != nil {
		return nil, "", fmt.Errorf("create tile clone: %w", err)
	}
	s.track(ctx, req, clone.ID, types.EventAICloned, map[string]any{"templateId": existing.TemplateID, "sourceTileId": existing.ID.String()})

	s.log.Info("tile cloned from cache", "tile_id", clone.ID, "source_tile_id", existing.ID)
	return &Result{
		TileID:     clone.ID,
		DetailURL:  DetailURL(req.Username, req.UserID, clone.ID, clone.Title),
		PreviewURL: s.store.GetPublicURL(gcp.BucketCategoryTile, existing.MasterKey),
		Cached:     true,
	}, "cloned", nil
}

// describe renders title, description and tags, falling back to the
// template name and the raw theme param.
func describe(t prompt.Template, params, renderParams map[string]any) (string, string, []string) {
	themeParam := stringParam(params, "theme")

	title := ""
	if t.TitleTemplate != "" {
		title = templates.Render(t.TitleTemplate, renderParams)
	} else {
		label := themeParam
		if label == "" {
			label = "AI"
		}
		title = t.Name + " - " + label
	}

	description := ""
	switch {
	case t.DescriptionTemplate != "":
		description = templates.Render(t.DescriptionTemplate, renderParams)
	case t.Description != "":
		description = t.Description
	default:
		description = "AI generated seamless tile"
	}

	var tags []string
	if len(t.Tags) > 0 {
		tags = make([]string, 0, len(t.Tags))
		for _, tag := range t.Tags {
			tags = append(tags, templates.Render(tag, renderParams))
		}
	} else {
		tag := themeParam
		if tag == "" {
			tag = "ai"
		}
		tags = []string{tag}
	}
	return title, description, tags
}

func parseSquareSize(size string) (int, int, error) {
	if !sizeRe.MatchString(size) {
		return 0, 0, apierr.New(http.StatusBadRequest, "invalid_size", errors.New("Invalid size"))
	}
	parts := strings.SplitN(size, "x", 2)
	w, _ := strconv.Atoi(parts[0])
	h, _ := strconv.Atoi(parts[1])
	if w != h {
		return 0, 0, apierr.New(http.StatusBadRequest, "invalid_size", errors.New("Size must be square"))
	}
	return w, h, nil
}

// track records a usage event. Failures are logged; the tile already exists.
func (s *Service) track(ctx context.Context, req Request, tileID uuid.UUID, typ types.EventType, meta map[string]any) {
	userID := req.UserID
	ev := &types.Event{
		Type:      typ,
		UserID:    &userID,
		TileID:    &tileID,
		IPHash:    HashIP(req.ClientIP),
		UserAgent: req.UserAgent,
		Meta:      jsonOrEmpty(meta, "{}"),
	}
	if _, err := s.events.Create(ctx, nil, []*types.Event{ev}); err != nil {
		s.log.Warn("track event failed", "type", typ, "tile_id", tileID, "error", err)
	}
}

// HashIP returns the sha256 hex of ip, or "" when ip is empty.
func HashIP(ip string) string {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])
}

func jsonOrEmpty(v any, empty string) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON([]byte(empty))
	}
	return datatypes.JSON(b)
}
