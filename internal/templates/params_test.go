package templates

import (
	"errors"
	"testing"

	"github.com/yungbote/tilegen-backend/internal/domain/prompt"
)

func cityTemplate() prompt.Template {
	return prompt.Template{
		ID:   "city",
		Name: "City",
		ParamsSchema: map[string]prompt.ParamSchema{
			"cityId": {Type: prompt.ParamTypeString, Regex: "^Q[0-9]+$"},
			"crayonColors": {Type: prompt.ParamTypeArray, MinItems: 1, MaxItems: 3,
				Items: &prompt.ParamSchema{Type: prompt.ParamTypeString, Regex: "^#[0-9a-fA-F]{3,6}$"}},
		},
		PromptTemplate: "Draw a city.",
	}
}

func TestValidateParams(t *testing.T) {
	tpl := cityTemplate()
	cases := []struct {
		name   string
		params map[string]any
		ok     bool
	}{
		{name: "valid", params: map[string]any{"cityId": "Q90", "crayonColors": []string{"#fff", "#000"}}, ok: true},
		{name: "regex rejects label", params: map[string]any{"cityId": "Paris", "crayonColors": []string{"#fff"}}},
		{name: "unknown key", params: map[string]any{"cityId": "Q90", "crayonColors": []string{"#fff"}, "extra": "x"}},
		{name: "missing key", params: map[string]any{"cityId": "Q90"}},
		{name: "too many items", params: map[string]any{"cityId": "Q90", "crayonColors": []string{"#111", "#222", "#333", "#444"}}},
		{name: "too few items", params: map[string]any{"cityId": "Q90", "crayonColors": []string{}}},
		{name: "bad item", params: map[string]any{"cityId": "Q90", "crayonColors": []any{"red"}}},
		{name: "wrong type", params: map[string]any{"cityId": 90, "crayonColors": []string{"#fff"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateParams(tpl, tc.params)
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrInvalidParams) {
				t.Fatalf("want ErrInvalidParams got=%v", err)
			}
		})
	}
}

func TestValidateParamsEnumAndLength(t *testing.T) {
	tpl := prompt.Template{ParamsSchema: map[string]prompt.ParamSchema{
		"themeKey": {Type: prompt.ParamTypeString, Enum: []string{"space", "ocean"}},
		"code":     {Type: prompt.ParamTypeString, Regex: "^[a-z]+$", Min: 2, Max: 4},
	}}
	if err := ValidateParams(tpl, map[string]any{"themeKey": "space", "code": "abc"}); err != nil {
		t.Fatalf("valid: %v", err)
	}
	if err := ValidateParams(tpl, map[string]any{"themeKey": "desert", "code": "abc"}); err == nil {
		t.Fatalf("enum: expected rejection")
	}
	if err := ValidateParams(tpl, map[string]any{"themeKey": "space", "code": "abcde"}); err == nil {
		t.Fatalf("max length: expected rejection")
	}
}

func TestApplyDefaultsParamsWin(t *testing.T) {
	got := ApplyDefaults(map[string]any{"style": "ink"}, map[string]any{"style": "flat", "size": "s"})
	if got["style"] != "ink" || got["size"] != "s" {
		t.Fatalf("ApplyDefaults: got=%v", got)
	}
}

func TestDeriveParams(t *testing.T) {
	got := DeriveParams(map[string]any{"crayonColors": []any{"#111111", "#222222"}, "cityLabel": "Paris"})
	if got["crayonColorsCsv"] != "#111111, #222222" {
		t.Fatalf("csv: got=%v", got["crayonColorsCsv"])
	}
	if got["cityLabel"] != "Paris" {
		t.Fatalf("passthrough: got=%v", got["cityLabel"])
	}
	if _, ok := got["cityLabelCsv"]; ok {
		t.Fatalf("scalar must not get a csv key")
	}
}

func TestRender(t *testing.T) {
	got := Render("{{cityLabel}} in {{colors}}{{missing}}!", map[string]any{
		"cityLabel": "Paris",
		"colors":    []string{"red", "blue"},
	})
	if want := "Paris in red, blue!"; got != want {
		t.Fatalf("Render: want=%q got=%q", want, got)
	}
}
