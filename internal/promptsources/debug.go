package promptsources

import (
	"github.com/yungbote/tilegen-backend/internal/domain/prompt"
	"github.com/yungbote/tilegen-backend/internal/providers"
)

type QueryDebug struct {
	Provider  string                   `json:"provider"`
	Type      prompt.ParamProviderKind `json:"type"`
	Query     string                   `json:"query,omitempty"`
	DependsOn []string                 `json:"dependsOn,omitempty"`
	Missing   []string                 `json:"missing,omitempty"`
}

// DescribeQueries reports, per parameter, which provider serves it and, for
// dependent parameters, the rendered query and any unset dependencies. No
// provider is called.
func DescribeQueries(src prompt.PromptSource, params map[string]string) map[string]QueryDebug {
	out := make(map[string]QueryDebug, len(src.ParamProviders))
	for _, name := range src.ParamNames() {
		pp := src.ParamProviders[name]
		d := QueryDebug{Provider: src.ProviderName(pp), Type: pp.Kind()}
		if p, ok := pp.(prompt.DependentParam); ok {
			limit := p.Limit
			if limit <= 0 {
				limit = 20
			}
			d.DependsOn = p.DependsOn
			d.Missing = MissingDependencies(p, params)
			if p.Query.SPARQL != "" {
				d.Query = providers.RenderSPARQL(p.Query.SPARQL, params, limit)
			}
		}
		out[name] = d
	}
	return out
}
