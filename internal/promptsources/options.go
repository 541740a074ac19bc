package promptsources

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/tilegen-backend/internal/domain/prompt"
	"github.com/yungbote/tilegen-backend/internal/observability"
	"github.com/yungbote/tilegen-backend/internal/platform/cache"
	"github.com/yungbote/tilegen-backend/internal/platform/logger"
	"github.com/yungbote/tilegen-backend/internal/providers"
)

const maxConcurrentParams = 4

type SourceInfo struct {
	Provider string `json:"provider"`
	Version  string `json:"version,omitempty"`
}

type CacheInfo struct {
	Hit        bool `json:"hit"`
	TTLSeconds int  `json:"ttlSeconds,omitempty"`
}

type OptionsResult struct {
	TemplateID string                     `json:"templateId"`
	Options    map[string][]prompt.Option `json:"options"`
	Source     *SourceInfo                `json:"source,omitempty"`
	Cache      *CacheInfo                 `json:"cache,omitempty"`
}

type OptionsRequest struct {
	Template      prompt.Template
	Source        *prompt.PromptSource
	RequestParams map[string]string
}

// OptionResolver builds the selectable options for every template
// parameter. Provider failures narrow the affected parameter to an empty
// list and are never returned.
type OptionResolver struct {
	log      *logger.Logger
	registry *providers.Registry
	cache    cache.Cache
	metrics  *observability.Metrics
}

func NewOptionResolver(log *logger.Logger, registry *providers.Registry, c cache.Cache) *OptionResolver {
	return &OptionResolver{log: log.With("service", "OptionResolver"), registry: registry, cache: c}
}

// WithMetrics records provider call outcomes on m.
func (r *OptionResolver) WithMetrics(m *observability.Metrics) *OptionResolver {
	r.metrics = m
	return r
}

func (r *OptionResolver) Resolve(ctx context.Context, req OptionsRequest) OptionsResult {
	options := BaselineOptions(req.Template)
	if req.Source == nil {
		return OptionsResult{TemplateID: req.Template.ID, Options: options}
	}
	src := *req.Source
	params := req.RequestParams
	if params == nil {
		params = map[string]string{}
	}
	oc := providers.OptionContext{Template: req.Template, Source: src, RequestParams: params}

	var names []string
	for _, name := range src.ParamNames() {
		if _, ok := req.Template.ParamsSchema[name]; ok {
			names = append(names, name)
		}
	}
	lists := make([][]prompt.Option, len(names))
	hits := make([]bool, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentParams)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			lists[i], hits[i] = r.paramOptions(gctx, name, src.ParamProviders[name], oc)
			return nil
		})
	}
	_ = g.Wait()

	hit := false
	for i, name := range names {
		options[name] = lists[i]
		hit = hit || hits[i]
	}
	return OptionsResult{
		TemplateID: req.Template.ID,
		Options:    options,
		Source:     &SourceInfo{Provider: src.Provider, Version: src.Version},
		Cache:      &CacheInfo{Hit: hit, TTLSeconds: src.Cache.TTL()},
	}
}

func (r *OptionResolver) paramOptions(ctx context.Context, name string, pp prompt.ParamProvider, oc providers.OptionContext) ([]prompt.Option, bool) {
	src := oc.Source
	if sp, ok := pp.(prompt.StaticParam); ok {
		return normalizeOptions(sp.Options, src.Sanitization, sp.Limit), false
	}

	providerName := src.ProviderName(pp)
	ttl := time.Duration(src.Cache.TTL()) * time.Second
	key, err := optionsCacheKey(src.ID, name, providerName, pp, oc.RequestParams)
	if err != nil {
		r.log.Warn("options cache key failed", "param", name, "error", err)
	}
	if ttl > 0 && key != "" {
		var cached []prompt.Option
		if hit, err := cache.GetJSON(ctx, r.cache, key, &cached); err != nil {
			r.log.Warn("options cache read failed", "key", key, "error", err)
		} else if hit {
			r.metrics.IncProviderCall(providerName, "cache_hit")
			return cached, true
		}
	}

	raw, limit, called, err := r.fetch(ctx, providerName, pp, oc)
	if err != nil {
		r.metrics.IncProviderCall(providerName, "error")
		r.log.Warn("provider call failed", "source_id", src.ID, "param", name, "provider", providerName, "error", err)
		return []prompt.Option{}, false
	}
	if !called {
		r.metrics.IncProviderCall(providerName, "skipped")
		return []prompt.Option{}, false
	}
	r.metrics.IncProviderCall(providerName, "ok")
	out := normalizeOptions(raw, src.Sanitization, limit)
	if ttl > 0 && key != "" {
		if err := cache.SetJSON(ctx, r.cache, key, out, ttl); err != nil {
			r.log.Warn("options cache write failed", "key", key, "error", err)
		}
	}
	return out, false
}

// fetch dispatches to the adapter capability matching the provider kind.
// called is false when no upstream request was made: the adapter lacks the
// capability or a dependent param is still waiting on its inputs.
func (r *OptionResolver) fetch(ctx context.Context, providerName string, pp prompt.ParamProvider, oc providers.OptionContext) (opts []prompt.Option, limit int, called bool, err error) {
	adapter, ok := r.registry.Get(providerName)
	if !ok {
		return nil, 0, false, fmt.Errorf("%w: %s", ErrUnknownProvider, providerName)
	}
	switch p := pp.(type) {
	case prompt.SearchParam:
		s, ok := adapter.(providers.Searcher)
		if !ok {
			return nil, p.Limit, false, nil
		}
		opts, err = s.Search(ctx, p, oc)
		return opts, p.Limit, true, err
	case prompt.DependentParam:
		d, ok := adapter.(providers.DependentQuerier)
		if !ok || len(MissingDependencies(p, oc.RequestParams)) > 0 {
			return nil, p.Limit, false, nil
		}
		opts, err = d.Dependent(ctx, p, oc)
		return opts, p.Limit, true, err
	default:
		return nil, 0, false, fmt.Errorf("unsupported provider kind %q", pp.Kind())
	}
}

// MissingDependencies lists the dependsOn keys with no value in params.
func MissingDependencies(p prompt.DependentParam, params map[string]string) []string {
	var missing []string
	for _, key := range p.DependsOn {
		if strings.TrimSpace(params[key]) == "" {
			missing = append(missing, key)
		}
	}
	return missing
}

func optionsCacheKey(sourceID, param, providerName string, pp prompt.ParamProvider, params map[string]string) (string, error) {
	b, err := json.Marshal(struct {
		ProviderName string               `json:"providerName"`
		Param        prompt.ParamProvider `json:"param"`
		Request      map[string]string    `json:"request"`
	}{providerName, pp, params})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return "prompt-sources:options:" + sourceID + ":" + param + ":" + hex.EncodeToString(sum[:]), nil
}

// BaselineOptions exposes enum values as self-labeled options and falls
// back to the template defaults for parameters without an enum.
func BaselineOptions(t prompt.Template) map[string][]prompt.Option {
	out := map[string][]prompt.Option{}
	for key, def := range t.ParamsSchema {
		if enum := def.EnumValues(); len(enum) > 0 {
			opts := make([]prompt.Option, 0, len(enum))
			for _, v := range enum {
				opts = append(opts, prompt.Option{ID: v, Label: v})
			}
			out[key] = opts
			continue
		}
		switch v := t.Defaults[key].(type) {
		case string:
			out[key] = []prompt.Option{{ID: v, Label: v}}
		case []any:
			opts := make([]prompt.Option, 0, len(v))
			for _, item := range v {
				s := fmt.Sprint(item)
				opts = append(opts, prompt.Option{ID: s, Label: s})
			}
			out[key] = opts
		case []string:
			opts := make([]prompt.Option, 0, len(v))
			for _, s := range v {
				opts = append(opts, prompt.Option{ID: s, Label: s})
			}
			out[key] = opts
		}
	}
	return out
}
