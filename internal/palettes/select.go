package palettes

import "github.com/yungbote/tilegen-backend/internal/domain/prompt"

var defaultLimits = Limits{Palettes: 6, MinColors: 3, MaxColors: 5}

// SelectRequest picks engine, strategy, seed and limits for a palette
// request from the source's color config and the query parameters.
func SelectRequest(templateID string, color prompt.ColorConfig, params map[string]string) SuggestRequest {
	engine := params["engine"]
	if engine == "" {
		engine = color.DefaultEngine
	}
	if engine == "" && len(color.Engines) > 0 {
		engine = color.Engines[0]
	}
	if engine == "" {
		engine = "thecolorapi"
	}

	var strategy *prompt.ColorStrategy
	for i := range color.Strategies {
		if color.Strategies[i].ID == params["strategy"] {
			strategy = &color.Strategies[i]
			break
		}
	}
	if strategy == nil && len(color.Strategies) > 0 {
		strategy = &color.Strategies[0]
	}

	seed := templateID
	for _, key := range []string{"seed", "themeId", "cityId"} {
		if v := params[key]; v != "" {
			seed = v
			break
		}
	}

	limits := defaultLimits
	if l := color.Limits; l != nil {
		if l.Palettes > 0 {
			limits.Palettes = l.Palettes
		}
		if l.MinColors > 0 {
			limits.MinColors = l.MinColors
		}
		if l.MaxColors > 0 {
			limits.MaxColors = l.MaxColors
		}
	}
	return SuggestRequest{
		TemplateID:      templateID,
		Engine:          engine,
		Strategy:        strategy,
		Seed:            seed,
		Limits:          limits,
		CacheTTLSeconds: color.Cache.TTL(),
	}
}
