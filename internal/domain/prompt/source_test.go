package prompt

import (
	"encoding/json"
	"strings"
	"testing"
)

const sourceJSON = `{
  "id": "city-tile",
  "provider": "wikidata",
  "paramProviders": {
    "countryId": {"type": "static", "options": [{"id": "Q142", "label": "France"}], "labelKey": "countryLabel"},
    "q": {"type": "search", "limit": 5},
    "cityId": {"type": "dependent", "provider": "wikidata", "dependsOn": ["countryId"], "query": {"sparql": "SELECT ?id ?label WHERE {} LIMIT {{limit}}"}, "keywordsKey": "cityKeywords"}
  },
  "entityResolver": {"provider": "wikidata", "config": {"labelLangs": ["fr", "en"]}}
}`

func TestPromptSourceDecodesParamProviderUnion(t *testing.T) {
	var src PromptSource
	if err := json.Unmarshal([]byte(sourceJSON), &src); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	static, ok := src.ParamProviders["countryId"].(StaticParam)
	if !ok || len(static.Options) != 1 || static.Keys().LabelKey != "countryLabel" {
		t.Fatalf("countryId: got=%#v", src.ParamProviders["countryId"])
	}
	if _, ok := src.ParamProviders["q"].(SearchParam); !ok {
		t.Fatalf("q: want SearchParam got=%T", src.ParamProviders["q"])
	}
	dep, ok := src.ParamProviders["cityId"].(DependentParam)
	if !ok || dep.DependsOn[0] != "countryId" || dep.Keys().KeywordsKey != "cityKeywords" {
		t.Fatalf("cityId: got=%#v", src.ParamProviders["cityId"])
	}
	if got := src.ProviderName(static); got != "static" {
		t.Fatalf("static provider name: got=%q", got)
	}
	if got := src.ProviderName(src.ParamProviders["q"]); got != "wikidata" {
		t.Fatalf("search provider name falls back to source: got=%q", got)
	}
	if names := src.ParamNames(); strings.Join(names, ",") != "cityId,countryId,q" {
		t.Fatalf("param names: got=%v", names)
	}
}

func TestPromptSourceSurvivesCacheRoundTrip(t *testing.T) {
	var src PromptSource
	if err := json.Unmarshal([]byte(sourceJSON), &src); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	b, err := json.Marshal(src)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"type":"dependent"`) {
		t.Fatalf("marshalled form lost the discriminator: %s", b)
	}
	var again PromptSource
	if err := json.Unmarshal(b, &again); err != nil {
		t.Fatalf("unmarshal again: %v", err)
	}
	if _, ok := again.ParamProviders["cityId"].(DependentParam); !ok {
		t.Fatalf("cityId after round trip: got=%T", again.ParamProviders["cityId"])
	}
}

func TestParamProviderRejectsInvalidVariants(t *testing.T) {
	cases := map[string]string{
		"unknown type":      `{"p": {"type": "graph"}}`,
		"dependent no deps": `{"p": {"type": "dependent", "dependsOn": [], "query": {"sparql": "x"}}}`,
		"static empty id":   `{"p": {"type": "static", "options": [{"id": " "}]}}`,
	}
	for name, raw := range cases {
		var m ParamProviders
		if err := json.Unmarshal([]byte(raw), &m); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
