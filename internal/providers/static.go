package providers

import (
	"context"

	"github.com/yungbote/tilegen-backend/internal/domain/prompt"
)

// Static resolves ids against the labels listed in the source's own static
// parameter providers.
type Static struct{}

func (Static) Name() string { return "static" }

func (Static) Resolve(_ context.Context, ids []string, src prompt.PromptSource) (map[string]prompt.ResolvedEntity, error) {
	labels := StaticLabels(src)
	out := make(map[string]prompt.ResolvedEntity, len(ids))
	for _, id := range ids {
		if label, ok := labels[id]; ok {
			out[id] = prompt.ResolvedEntity{Label: label}
		}
	}
	return out, nil
}

// StaticLabels maps option id to label across every static parameter of
// src. Options without a label are skipped.
func StaticLabels(src prompt.PromptSource) map[string]string {
	labels := map[string]string{}
	for _, name := range src.ParamNames() {
		sp, ok := src.ParamProviders[name].(prompt.StaticParam)
		if !ok {
			continue
		}
		for _, opt := range sp.Options {
			if opt.Label != "" {
				labels[opt.ID] = opt.Label
			}
		}
	}
	return labels
}
