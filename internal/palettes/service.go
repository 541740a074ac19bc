package palettes

import (
	"context"
	"time"

	"github.com/yungbote/tilegen-backend/internal/domain/prompt"
	"github.com/yungbote/tilegen-backend/internal/platform/cache"
	"github.com/yungbote/tilegen-backend/internal/platform/logger"
)

type Limits struct {
	Palettes  int `json:"palettes"`
	MinColors int `json:"minColors"`
	MaxColors int `json:"maxColors"`
}

type SuggestRequest struct {
	TemplateID      string
	Engine          string
	Strategy        *prompt.ColorStrategy
	Seed            string
	Limits          Limits
	CacheTTLSeconds int
}

type CacheInfo struct {
	Hit        bool `json:"hit"`
	TTLSeconds int  `json:"ttlSeconds,omitempty"`
}

type Suggestion struct {
	Palettes []prompt.Palette `json:"palettes"`
	Cache    CacheInfo        `json:"cache"`
}

type Service struct {
	log     *logger.Logger
	engines map[string]Engine
	cache   cache.Cache
}

func NewService(log *logger.Logger, c cache.Cache, engines ...Engine) *Service {
	m := make(map[string]Engine, len(engines))
	for _, e := range engines {
		m[e.Name()] = e
	}
	return &Service{log: log.With("service", "PaletteService"), engines: m, cache: c}
}

// Suggest never fails: engine errors fall through to the built-in
// palettes.
func (s *Service) Suggest(ctx context.Context, req SuggestRequest) Suggestion {
	strategyID := "default"
	if req.Strategy != nil && req.Strategy.ID != "" {
		strategyID = req.Strategy.ID
	}
	key := "palettes:" + req.TemplateID + ":" + req.Engine + ":" + strategyID + ":" + req.Seed
	ttl := time.Duration(req.CacheTTLSeconds) * time.Second
	info := CacheInfo{TTLSeconds: req.CacheTTLSeconds}

	if ttl > 0 {
		var cached []prompt.Palette
		if hit, err := cache.GetJSON(ctx, s.cache, key, &cached); err != nil {
			s.log.Warn("palette cache read failed", "key", key, "error", err)
		} else if hit {
			info.Hit = true
			return Suggestion{Palettes: cached, Cache: info}
		}
	}

	var out []prompt.Palette
	if p := s.fromEngine(ctx, req); p != nil {
		out = append(out, *p)
	}
	if len(out) == 0 {
		for _, fb := range fallbackPalettes {
			if p := ClampPalette(fb, req.Limits.MinColors, req.Limits.MaxColors); p != nil {
				out = append(out, *p)
			}
			if len(out) >= req.Limits.Palettes {
				break
			}
		}
	}
	if req.Limits.Palettes > 0 && len(out) > req.Limits.Palettes {
		out = out[:req.Limits.Palettes]
	}
	if out == nil {
		out = []prompt.Palette{}
	}

	if ttl > 0 {
		if err := cache.SetJSON(ctx, s.cache, key, out, ttl); err != nil {
			s.log.Warn("palette cache write failed", "key", key, "error", err)
		}
	}
	return Suggestion{Palettes: out, Cache: info}
}

func (s *Service) fromEngine(ctx context.Context, req SuggestRequest) *prompt.Palette {
	engine, ok := s.engines[req.Engine]
	if !ok {
		s.log.Warn("unknown palette engine", "engine", req.Engine)
		return nil
	}
	mode, count, policy := defaultMode, defaultCount, prompt.BackgroundPastel
	if st := req.Strategy; st != nil {
		if st.Mode != "" {
			mode = st.Mode
		}
		if st.Count > 0 {
			count = st.Count
		}
		if st.BackgroundPolicy != "" {
			policy = st.BackgroundPolicy
		}
	}
	seedHex := req.Seed
	if !IsHexColor(seedHex) {
		seedHex = SeedToHex(req.Seed)
	}

	raw, err := engine.Colors(ctx, seedHex, mode, count)
	if err != nil {
		s.log.Warn("palette engine failed", "engine", req.Engine, "error", err)
		return nil
	}
	if len(raw) == 0 {
		return nil
	}
	colors := DedupeColors(raw)
	base := seedHex
	if len(colors) > 0 {
		base = colors[0]
	}
	bg := NormalizeHex(base)
	switch policy {
	case prompt.BackgroundPastel:
		bg = Lighten(base, 0.7)
	case prompt.BackgroundLight:
		bg = Lighten(base, 0.5)
	}
	meta := map[string]string{"engine": req.Engine}
	if req.Strategy != nil && req.Strategy.ID != "" {
		meta["strategy"] = req.Strategy.ID
	}
	return ClampPalette(prompt.Palette{BackgroundColor: bg, CrayonColors: colors, Meta: meta}, req.Limits.MinColors, req.Limits.MaxColors)
}
