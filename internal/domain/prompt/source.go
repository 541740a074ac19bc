package prompt

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

type Sanitization struct {
	MaxLength      int    `json:"maxLength,omitempty"`
	AllowedPattern string `json:"allowedPattern,omitempty"`
}

type CachePolicy struct {
	TTLSeconds int `json:"ttlSeconds,omitempty"`
}

func (c *CachePolicy) TTL() int {
	if c == nil || c.TTLSeconds < 0 {
		return 0
	}
	return c.TTLSeconds
}

type EntityResolver struct {
	Provider string               `json:"provider"`
	Config   EntityResolverConfig `json:"config,omitempty"`
}

type EntityResolverConfig struct {
	LabelLangs []string `json:"labelLangs,omitempty"`
	AliasLangs []string `json:"aliasLangs,omitempty"`
}

type BackgroundPolicy string

const (
	BackgroundPastel  BackgroundPolicy = "pastel"
	BackgroundLight   BackgroundPolicy = "light"
	BackgroundNeutral BackgroundPolicy = "neutral"
)

type ColorStrategy struct {
	ID               string           `json:"id"`
	BackgroundPolicy BackgroundPolicy `json:"backgroundPolicy,omitempty"`
	Mode             string           `json:"mode,omitempty"`
	Count            int              `json:"count,omitempty"`
}

type ColorLimits struct {
	Palettes  int `json:"palettes,omitempty"`
	MinColors int `json:"minColors,omitempty"`
	MaxColors int `json:"maxColors,omitempty"`
}

type ColorConfig struct {
	Engines       []string        `json:"engines,omitempty"`
	DefaultEngine string          `json:"defaultEngine,omitempty"`
	Cache         *CachePolicy    `json:"cache,omitempty"`
	Limits        *ColorLimits    `json:"limits,omitempty"`
	Strategies    []ColorStrategy `json:"strategies,omitempty"`
}

// PromptSource describes how a template's parameter values are turned into
// human labels. ID matches the template id.
type PromptSource struct {
	ID             string          `json:"id"`
	Provider       string          `json:"provider"`
	Version        string          `json:"version,omitempty"`
	ParamProviders ParamProviders  `json:"paramProviders"`
	EntityResolver *EntityResolver `json:"entityResolver,omitempty"`
	Sanitization   *Sanitization   `json:"sanitization,omitempty"`
	Cache          *CachePolicy    `json:"cache,omitempty"`
	Color          *ColorConfig    `json:"color,omitempty"`
}

// ProviderName is the adapter that serves param: "static" for static lists,
// otherwise the param's own provider or the source default.
func (s PromptSource) ProviderName(p ParamProvider) string {
	switch v := p.(type) {
	case StaticParam:
		return "static"
	case SearchParam:
		if v.Provider != "" {
			return v.Provider
		}
	case DependentParam:
		if v.Provider != "" {
			return v.Provider
		}
	}
	return s.Provider
}

// ParamNames returns the declared parameter names in sorted order.
func (s PromptSource) ParamNames() []string {
	names := make([]string, 0, len(s.ParamProviders))
	for name := range s.ParamProviders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type ParamProviderKind string

const (
	KindStatic    ParamProviderKind = "static"
	KindSearch    ParamProviderKind = "search"
	KindDependent ParamProviderKind = "dependent"
)

// ParamProvider is one of StaticParam, SearchParam or DependentParam.
type ParamProvider interface {
	Kind() ParamProviderKind
	Keys() OutputKeys
}

// OutputKeys name where a resolved label and its keywords are written in
// the prompt input. Empty LabelKey means the parameter name.
type OutputKeys struct {
	LabelKey    string `json:"labelKey,omitempty"`
	KeywordsKey string `json:"keywordsKey,omitempty"`
}

type StaticParam struct {
	Options []Option `json:"options"`
	Limit   int      `json:"limit,omitempty"`
	OutputKeys
}

type SearchParam struct {
	Provider    string         `json:"provider,omitempty"`
	Query       map[string]any `json:"query,omitempty"`
	Limit       int            `json:"limit,omitempty"`
	SearchParam string         `json:"searchParam,omitempty"`
	OutputKeys
}

type DependentQuery struct {
	SPARQL string `json:"sparql"`
}

type DependentParam struct {
	Provider  string         `json:"provider,omitempty"`
	DependsOn []string       `json:"dependsOn"`
	Query     DependentQuery `json:"query"`
	Limit     int            `json:"limit,omitempty"`
	OutputKeys
}

func (StaticParam) Kind() ParamProviderKind    { return KindStatic }
func (SearchParam) Kind() ParamProviderKind    { return KindSearch }
func (DependentParam) Kind() ParamProviderKind { return KindDependent }

func (p StaticParam) Keys() OutputKeys    { return p.OutputKeys }
func (p SearchParam) Keys() OutputKeys    { return p.OutputKeys }
func (p DependentParam) Keys() OutputKeys { return p.OutputKeys }

func (p StaticParam) MarshalJSON() ([]byte, error) {
	type alias StaticParam
	return json.Marshal(struct {
		Type ParamProviderKind `json:"type"`
		alias
	}{KindStatic, alias(p)})
}

func (p SearchParam) MarshalJSON() ([]byte, error) {
	type alias SearchParam
	return json.Marshal(struct {
		Type ParamProviderKind `json:"type"`
		alias
	}{KindSearch, alias(p)})
}

func (p DependentParam) MarshalJSON() ([]byte, error) {
	type alias DependentParam
	return json.Marshal(struct {
		Type ParamProviderKind `json:"type"`
		alias
	}{KindDependent, alias(p)})
}

type ParamProviders map[string]ParamProvider

func (m *ParamProviders) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(ParamProviders, len(raw))
	for name, msg := range raw {
		p, err := decodeParamProvider(msg)
		if err != nil {
			return fmt.Errorf("paramProviders.%s: %w", name, err)
		}
		out[name] = p
	}
	*m = out
	return nil
}

func decodeParamProvider(msg json.RawMessage) (ParamProvider, error) {
	var head struct {
		Type ParamProviderKind `json:"type"`
	}
	if err := json.Unmarshal(msg, &head); err != nil {
		return nil, err
	}
	switch head.Type {
	case KindStatic:
		var p StaticParam
		if err := json.Unmarshal(msg, &p); err != nil {
			return nil, err
		}
		for i, opt := range p.Options {
			if strings.TrimSpace(opt.ID) == "" {
				return nil, fmt.Errorf("options[%d]: empty id", i)
			}
		}
		return p, nil
	case KindSearch:
		var p SearchParam
		if err := json.Unmarshal(msg, &p); err != nil {
			return nil, err
		}
		if p.Limit < 0 {
			return nil, fmt.Errorf("limit must be positive")
		}
		return p, nil
	case KindDependent:
		var p DependentParam
		if err := json.Unmarshal(msg, &p); err != nil {
			return nil, err
		}
		if len(p.DependsOn) == 0 {
			return nil, fmt.Errorf("dependsOn requires at least one parameter")
		}
		if p.Limit < 0 {
			return nil, fmt.Errorf("limit must be positive")
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown provider type %q", head.Type)
	}
}
