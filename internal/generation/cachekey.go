package generation

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/yungbote/tilegen-backend/internal/domain/prompt"
	"github.com/yungbote/tilegen-backend/internal/templates"
)

var (
	nonAlnum      = regexp.MustCompile(`[^\p{L}\p{N}]+`)
	shortHexColor = regexp.MustCompile(`^#[0-9a-f]{3}$`)
)

// KeyInput is everything that determines the generated image. Params are
// the schema-validated values, not the sanitized prompt labels.
type KeyInput struct {
	TemplateID   string         `json:"templateId"`
	Model        string         `json:"model"`
	Size         string         `json:"size"`
	OutputFormat string         `json:"output_format"`
	Background   string         `json:"background"`
	Params       map[string]any `json:"params"`
}

// NormalizeText lowercases s, strips diacritics and reduces everything
// else to single spaces between letters and digits of any script.
func NormalizeText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		out = strings.ToLower(s)
	}
	return strings.TrimSpace(nonAlnum.ReplaceAllString(out, " "))
}

// NormalizeColor lowercases a hex color and expands the three-digit form.
func NormalizeColor(s string) string {
	h := strings.ToLower(strings.TrimSpace(s))
	if shortHexColor.MatchString(h) {
		h = "#" + strings.Repeat(h[1:2], 2) + strings.Repeat(h[2:3], 2) + strings.Repeat(h[3:4], 2)
	}
	return h
}

type fieldKind int

const (
	fieldPlain fieldKind = iota
	fieldText
	fieldColor
)

func classify(t prompt.Template, name string) fieldKind {
	if name == "themeText" || strings.HasSuffix(name, "Text") {
		return fieldText
	}
	if strings.HasSuffix(name, "Color") || strings.HasSuffix(name, "Colors") {
		return fieldColor
	}
	if def, ok := t.ParamsSchema[name]; ok {
		re := def.Regex
		if def.Items != nil {
			re = def.Items.Regex
		}
		if strings.HasPrefix(re, "^#") {
			return fieldColor
		}
	}
	if hint, ok := t.UIHints[name]; ok && (hint.Widget == "color" || hint.Widget == "colorList") {
		return fieldColor
	}
	return fieldPlain
}

// NormalizeParams canonicalizes params so that semantically equal
// requests hash identically. Color lists are sorted; every other list
// keeps its order.
func NormalizeParams(t prompt.Template, params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		switch classify(t, k) {
		case fieldText:
			if s, ok := v.(string); ok {
				out[k] = NormalizeText(s)
				continue
			}
		case fieldColor:
			if s, ok := v.(string); ok {
				out[k] = NormalizeColor(s)
				continue
			}
			if list, ok := templates.StringSlice(v); ok {
				colors := make([]string, 0, len(list))
				for _, c := range list {
					colors = append(colors, NormalizeColor(c))
				}
				sort.Strings(colors)
				out[k] = colors
				continue
			}
		}
		out[k] = v
	}
	return out
}

// CacheKey hashes the canonical JSON of in. encoding/json writes map keys
// in sorted order, which keeps the serialization stable.
func CacheKey(in KeyInput) (string, error) {
	b, err := json.Marshal(in)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
