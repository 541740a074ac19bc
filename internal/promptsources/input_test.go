package promptsources

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/yungbote/tilegen-backend/internal/domain/prompt"
	"github.com/yungbote/tilegen-backend/internal/platform/logger"
)

func TestResolveInputWithoutSourcePassesThrough(t *testing.T) {
	tpl := prompt.Template{
		ID:           "T",
		ParamsSchema: map[string]prompt.ParamSchema{"themeKey": {Type: prompt.ParamTypeString, Enum: []string{"space", "ocean"}}},
	}
	opts := NewOptionResolver(logger.NewNop(), newRegistry(t), nil).Resolve(context.Background(), OptionsRequest{Template: tpl})
	wantOpts := []prompt.Option{{ID: "space", Label: "space"}, {ID: "ocean", Label: "ocean"}}
	if !reflect.DeepEqual(opts.Options["themeKey"], wantOpts) {
		t.Fatalf("options: want=%v got=%v", wantOpts, opts.Options["themeKey"])
	}

	r := NewInputResolver(logger.NewNop(), newRegistry(t))
	res, err := r.Resolve(context.Background(), InputRequest{Template: tpl, Params: map[string]any{"themeKey": "space"}})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.SafeInput["themeKey"] != "space" || len(res.Labels) != 0 {
		t.Fatalf("passthrough: got=%+v", res)
	}
}

func TestResolveInputSanitizesStaticLabel(t *testing.T) {
	src := &prompt.PromptSource{
		ID: "city-tile", Provider: "static",
		ParamProviders: prompt.ParamProviders{
			"cityId": prompt.StaticParam{
				Options:    []prompt.Option{{ID: "Q90", Label: "Paris\nCity💥"}},
				OutputKeys: prompt.OutputKeys{LabelKey: "cityLabel"},
			},
		},
		Sanitization: &prompt.Sanitization{MaxLength: 20},
	}
	r := NewInputResolver(logger.NewNop(), newRegistry(t))
	res, err := r.Resolve(context.Background(), InputRequest{Template: cityTemplate(), Source: src, Params: map[string]any{"cityId": "Q90"}})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.SafeInput["cityLabel"] != "Paris City" {
		t.Fatalf("cityLabel: want=%q got=%q", "Paris City", res.SafeInput["cityLabel"])
	}
	if res.SafeInput["cityId"] != "Q90" || res.Labels["cityId"] != "Paris City" {
		t.Fatalf("result: got=%+v", res)
	}
}

func TestResolveInputMissingResolverFailsClosed(t *testing.T) {
	src := &prompt.PromptSource{
		ID: "city-tile", Provider: "wikidata",
		ParamProviders: prompt.ParamProviders{"cityId": prompt.SearchParam{}},
	}
	r := NewInputResolver(logger.NewNop(), newRegistry(t))
	_, err := r.Resolve(context.Background(), InputRequest{Template: cityTemplate(), Source: src, Params: map[string]any{"cityId": "Q90"}})
	var re *ResolutionError
	if !errors.As(err, &re) || !errors.Is(err, ErrMissingResolver) || re.Param != "cityId" {
		t.Fatalf("want missing resolver for cityId, got=%v", err)
	}
}

func TestResolveInputExternalLabelsAndKeywords(t *testing.T) {
	wd := &fakeProvider{name: "wikidata", entities: map[string]prompt.ResolvedEntity{
		"Q90": {Label: "Paris", Keywords: []string{"City of Light", "💥", "Lutetia", "a", "b", "c", "d", "e", "f", "g"}},
	}}
	src := &prompt.PromptSource{
		ID: "city-tile", Provider: "wikidata",
		ParamProviders: prompt.ParamProviders{
			"cityId": prompt.SearchParam{OutputKeys: prompt.OutputKeys{LabelKey: "cityLabel", KeywordsKey: "cityKeywords"}},
		},
		EntityResolver: &prompt.EntityResolver{Provider: "wikidata"},
	}
	r := NewInputResolver(logger.NewNop(), newRegistry(t, wd))
	res, err := r.Resolve(context.Background(), InputRequest{Template: cityTemplate(), Source: src, Params: map[string]any{"cityId": "Q90"}})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.SafeInput["cityLabel"] != "Paris" {
		t.Fatalf("cityLabel: got=%v", res.SafeInput["cityLabel"])
	}
	if want := "City of Light, Lutetia, a, b, c, d, e, f"; res.SafeInput["cityKeywords"] != want {
		t.Fatalf("cityKeywords: want=%q got=%q", want, res.SafeInput["cityKeywords"])
	}
	if len(wd.resolved) != 1 || !reflect.DeepEqual(wd.resolved[0], []string{"Q90"}) {
		t.Fatalf("resolve calls: got=%v", wd.resolved)
	}
}

func TestResolveInputLabelFailures(t *testing.T) {
	cases := []struct {
		name     string
		entities map[string]prompt.ResolvedEntity
		err      error
		want     error
	}{
		{"missing", map[string]prompt.ResolvedEntity{}, nil, ErrMissingLabel},
		{"upstream error", nil, errUpstream, ErrMissingLabel},
		{"unsafe", map[string]prompt.ResolvedEntity{"Q90": {Label: "💥💥"}}, nil, ErrInvalidLabel},
	}
	for _, tc := range cases {
		wd := &fakeProvider{name: "wikidata", entities: tc.entities, err: tc.err}
		src := &prompt.PromptSource{
			ID: "city-tile", Provider: "wikidata",
			ParamProviders: prompt.ParamProviders{"cityId": prompt.SearchParam{}},
			EntityResolver: &prompt.EntityResolver{Provider: "wikidata"},
		}
		r := NewInputResolver(logger.NewNop(), newRegistry(t, wd))
		_, err := r.Resolve(context.Background(), InputRequest{Template: cityTemplate(), Source: src, Params: map[string]any{"cityId": "Q90"}})
		var re *ResolutionError
		if !errors.Is(err, tc.want) || !errors.As(err, &re) || re.Param != "cityId" {
			t.Fatalf("%s: want=%v got=%v", tc.name, tc.want, err)
		}
	}
}

func TestResolveInputSkipsEmptyAndUndeclaredValues(t *testing.T) {
	src := &prompt.PromptSource{
		ID: "city-tile", Provider: "wikidata",
		ParamProviders: prompt.ParamProviders{
			"cityId":  prompt.SearchParam{},
			"unknown": prompt.SearchParam{},
		},
	}
	r := NewInputResolver(logger.NewNop(), newRegistry(t))
	res, err := r.Resolve(context.Background(), InputRequest{
		Template: cityTemplate(), Source: src,
		Params: map[string]any{"cityId": "", "unknown": "Q1"},
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(res.Labels) != 0 || res.SafeInput["unknown"] != "Q1" {
		t.Fatalf("result: got=%+v", res)
	}
}
