package templates

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/yungbote/tilegen-backend/internal/domain/prompt"
)

// MaxArrayItems caps every array parameter.
const MaxArrayItems = 5

var placeholderRe = regexp.MustCompile(`\{\{\w+\}\}`)

// AssertSafe checks the load-time invariants of a single template.
func AssertSafe(t prompt.Template) error {
	fail := func(format string, args ...any) error {
		return &LoadError{TemplateID: t.ID, Reason: fmt.Sprintf(format, args...)}
	}
	if strings.TrimSpace(t.ID) == "" {
		return &LoadError{Reason: "template id is required"}
	}
	if strings.TrimSpace(t.Name) == "" {
		return fail("name is required")
	}
	if strings.TrimSpace(t.PromptTemplate) == "" {
		return fail("promptTemplate is required")
	}
	if t.ThemeOptions != nil && len(t.ThemeOptions) == 0 {
		return fail("empty themeOptions")
	}
	if placeholderRe.MatchString(t.PromptTemplate) {
		return fail("promptTemplate contains placeholders")
	}
	for _, s := range t.Samples {
		if strings.TrimSpace(s) == "" {
			return fail("empty sample")
		}
	}

	keys := make([]string, 0, len(t.ParamsSchema))
	for k := range t.ParamsSchema {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		def := t.ParamsSchema[key]
		switch def.Type {
		case prompt.ParamTypeString:
			if err := assertSafeString(def); err != nil {
				return fail("param %s: %v", key, err)
			}
		case prompt.ParamTypeArray:
			if def.MinItems < 0 {
				return fail("param %s: invalid minItems", key)
			}
			if def.MaxItems > MaxArrayItems {
				return fail("param %s: exceeds maxItems %d", key, MaxArrayItems)
			}
			if def.MinItems > 0 && def.MaxItems > 0 && def.MinItems > def.MaxItems {
				return fail("param %s: minItems greater than maxItems", key)
			}
			if def.Items == nil || def.Items.Type != prompt.ParamTypeString {
				return fail("param %s: array items must be strings", key)
			}
			if err := assertSafeString(*def.Items); err != nil {
				return fail("param %s items: %v", key, err)
			}
		default:
			return fail("param %s: unsupported type %q", key, def.Type)
		}
	}
	return nil
}

func assertSafeString(def prompt.ParamSchema) error {
	if len(def.Enum) == 0 && def.Regex == "" {
		return fmt.Errorf("string param needs enum or regex")
	}
	if def.Regex != "" {
		if _, err := regexp.Compile(def.Regex); err != nil {
			return fmt.Errorf("bad regex: %w", err)
		}
	}
	if def.Min < 0 || def.Max < 0 || (def.Max > 0 && def.Min > def.Max) {
		return fmt.Errorf("invalid length bounds")
	}
	return nil
}

// validateAll fails on the first unsafe template or duplicate id.
func validateAll(list []prompt.Template) error {
	seen := make(map[string]struct{}, len(list))
	for _, t := range list {
		if err := AssertSafe(t); err != nil {
			return err
		}
		if _, dup := seen[t.ID]; dup {
			return &LoadError{TemplateID: t.ID, Reason: "duplicate id"}
		}
		seen[t.ID] = struct{}{}
	}
	return nil
}
