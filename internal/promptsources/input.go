package promptsources

import (
	"context"
	"strings"

	"github.com/yungbote/tilegen-backend/internal/domain/prompt"
	"github.com/yungbote/tilegen-backend/internal/platform/logger"
	"github.com/yungbote/tilegen-backend/internal/providers"
)

const maxKeywords = 8

type InputRequest struct {
	Template prompt.Template
	Source   *prompt.PromptSource
	Params   map[string]any
}

type InputResult struct {
	SafeInput map[string]any    `json:"safeInput"`
	Labels    map[string]string `json:"labels"`
}

// InputResolver replaces option ids with sanitized labels before they are
// interpolated into a prompt.
type InputResolver struct {
	log      *logger.Logger
	registry *providers.Registry
}

func NewInputResolver(log *logger.Logger, registry *providers.Registry) *InputResolver {
	return &InputResolver{log: log.With("service", "InputResolver"), registry: registry}
}

// Resolve returns a *ResolutionError when an id cannot be turned into a
// safe label. Params are expected to be schema-validated already.
func (r *InputResolver) Resolve(ctx context.Context, req InputRequest) (InputResult, error) {
	safe := make(map[string]any, len(req.Params))
	for k, v := range req.Params {
		safe[k] = v
	}
	out := InputResult{SafeInput: safe, Labels: map[string]string{}}
	if req.Source == nil {
		return out, nil
	}
	src := *req.Source

	staticLabels := providers.StaticLabels(src)
	idByParam := map[string]string{}
	var toResolve []string
	firstDynamic := ""
	names := make([]string, 0, len(src.ParamProviders))
	for _, name := range src.ParamNames() {
		if _, ok := req.Template.ParamsSchema[name]; !ok {
			continue
		}
		id, ok := req.Params[name].(string)
		if !ok || id == "" {
			continue
		}
		names = append(names, name)
		idByParam[name] = id
		if _, ok := staticLabels[id]; !ok {
			toResolve = append(toResolve, id)
			if firstDynamic == "" {
				firstDynamic = name
			}
		}
	}
	if len(toResolve) > 0 && src.EntityResolver == nil {
		return InputResult{}, &ResolutionError{Param: firstDynamic, Err: ErrMissingResolver}
	}

	entities := make(map[string]prompt.ResolvedEntity, len(staticLabels)+len(toResolve))
	for id, label := range staticLabels {
		entities[id] = prompt.ResolvedEntity{Label: label}
	}
	if len(toResolve) > 0 {
		for id, ent := range r.resolveExternal(ctx, src, toResolve) {
			entities[id] = ent
		}
	}

	for _, name := range names {
		ent, ok := entities[idByParam[name]]
		if !ok || ent.Label == "" {
			return InputResult{}, &ResolutionError{Param: name, Err: ErrMissingLabel}
		}
		label := SanitizeLabel(ent.Label, src.Sanitization)
		if label == "" {
			return InputResult{}, &ResolutionError{Param: name, Reason: "label is empty after sanitization", Err: ErrInvalidLabel}
		}
		keys := src.ParamProviders[name].Keys()
		labelKey := keys.LabelKey
		if labelKey == "" {
			labelKey = name
		}
		safe[labelKey] = label
		if keys.KeywordsKey != "" && len(ent.Keywords) > 0 {
			var kws []string
			for _, kw := range ent.Keywords {
				if s := SanitizeLabel(kw, src.Sanitization); s != "" {
					kws = append(kws, s)
				}
				if len(kws) == maxKeywords {
					break
				}
			}
			if len(kws) > 0 {
				safe[keys.KeywordsKey] = strings.Join(kws, ", ")
			}
		}
		out.Labels[name] = label
	}
	return out, nil
}

// resolveExternal asks the source's entity resolver for labels. Failures
// yield no entities, which surfaces as a missing label for the caller.
func (r *InputResolver) resolveExternal(ctx context.Context, src prompt.PromptSource, ids []string) map[string]prompt.ResolvedEntity {
	name := src.EntityResolver.Provider
	adapter, ok := r.registry.Get(name)
	if !ok {
		r.log.Warn("entity resolver not registered", "source_id", src.ID, "provider", name)
		return nil
	}
	res, ok := adapter.(providers.Resolver)
	if !ok {
		r.log.Warn("provider cannot resolve ids", "source_id", src.ID, "provider", name)
		return nil
	}
	entities, err := res.Resolve(ctx, ids, src)
	if err != nil {
		r.log.Warn("entity resolution failed", "source_id", src.ID, "provider", name, "ids", len(ids), "error", err)
		return nil
	}
	return entities
}
