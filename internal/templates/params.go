package templates

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/yungbote/tilegen-backend/internal/domain/prompt"
)

var compiledSchemas sync.Map // schema JSON -> *jsonschema.Schema

// ParamsJSONSchema converts a template's parameter schema into a strict JSON
// Schema: every declared key is required and unknown keys are rejected.
func ParamsJSONSchema(params map[string]prompt.ParamSchema) map[string]any {
	props := make(map[string]any, len(params))
	required := make([]string, 0, len(params))
	for key, def := range params {
		required = append(required, key)
		switch def.Type {
		case prompt.ParamTypeArray:
			node := map[string]any{"type": "array"}
			if def.Items != nil {
				node["items"] = stringNode(*def.Items)
			}
			if def.MinItems > 0 {
				node["minItems"] = def.MinItems
			}
			maxItems := def.MaxItems
			if maxItems <= 0 {
				maxItems = MaxArrayItems
			}
			node["maxItems"] = maxItems
			props[key] = node
		default:
			props[key] = stringNode(def)
		}
	}
	sort.Strings(required)
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

func stringNode(def prompt.ParamSchema) map[string]any {
	node := map[string]any{"type": "string"}
	if len(def.Enum) > 0 {
		node["enum"] = def.Enum
	}
	if def.Min > 0 {
		node["minLength"] = def.Min
	}
	if def.Max > 0 {
		node["maxLength"] = def.Max
	}
	if def.Regex != "" {
		node["pattern"] = def.Regex
	}
	return node
}

func compileParamsSchema(params map[string]prompt.ParamSchema) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(ParamsJSONSchema(params))
	if err != nil {
		return nil, err
	}
	if s, ok := compiledSchemas.Load(string(raw)); ok {
		return s.(*jsonschema.Schema), nil
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("params.json", bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("load params schema: %w", err)
	}
	schema, err := compiler.Compile("params.json")
	if err != nil {
		return nil, fmt.Errorf("compile params schema: %w", err)
	}
	compiledSchemas.Store(string(raw), schema)
	return schema, nil
}

// ValidateParams checks params against the template's schema. Failures wrap
// ErrInvalidParams.
func ValidateParams(t prompt.Template, params map[string]any) error {
	schema, err := compileParamsSchema(t.ParamsSchema)
	if err != nil {
		return err
	}
	doc, err := toJSONValue(params)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}

// toJSONValue normalizes Go values ([]string and friends) into the generic
// shapes produced by encoding/json.
func toJSONValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyDefaults layers params over the template defaults.
func ApplyDefaults(params, defaults map[string]any) map[string]any {
	out := make(map[string]any, len(params)+len(defaults))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range params {
		out[k] = v
	}
	return out
}

// DeriveParams returns a copy of params with "<key>Csv" added for each array.
func DeriveParams(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = v
		if items, ok := StringSlice(v); ok {
			out[k+"Csv"] = strings.Join(items, ", ")
		}
	}
	return out
}

var renderRe = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Render substitutes {{key}} placeholders. Missing and nil values render as
// empty strings; arrays are comma-joined.
func Render(tpl string, params map[string]any) string {
	return renderRe.ReplaceAllStringFunc(tpl, func(m string) string {
		key := renderRe.FindStringSubmatch(m)[1]
		v, ok := params[key]
		if !ok || v == nil {
			return ""
		}
		if items, ok := StringSlice(v); ok {
			return strings.Join(items, ", ")
		}
		return fmt.Sprint(v)
	})
}

// StringSlice reports whether v is an array and returns its elements as
// strings.
func StringSlice(v any) ([]string, bool) {
	switch t := v.(type) {
	case []string:
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if item == nil {
				out = append(out, "")
				continue
			}
			out = append(out, fmt.Sprint(item))
		}
		return out, true
	default:
		return nil, false
	}
}
