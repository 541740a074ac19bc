package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/tilegen-backend/internal/domain/prompt"
	"github.com/yungbote/tilegen-backend/internal/platform/logger"
)

const (
	defaultSearchLimit    = 10
	defaultDependentLimit = 20
	resolveChunkSize      = 50
)

type WikidataConfig struct {
	APIURL    string
	SPARQLURL string
	UserAgent string
	Timeout   time.Duration
	// Language used for entity search.
	Language string
}

// Wikidata serves search, SPARQL-backed dependent lists and label
// resolution against the public Wikidata endpoints.
type Wikidata struct {
	log        *logger.Logger
	cfg        WikidataConfig
	httpClient *http.Client
}

func NewWikidata(log *logger.Logger, cfg WikidataConfig) *Wikidata {
	if cfg.APIURL == "" {
		cfg.APIURL = "https://www.wikidata.org/w/api.php"
	}
	if cfg.SPARQLURL == "" {
		cfg.SPARQLURL = "https://query.wikidata.org/sparql"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "tilegen/1.0 (prompt-sources)"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	return &Wikidata{
		log:        log.With("provider", "wikidata"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (w *Wikidata) Name() string { return "wikidata" }

func (w *Wikidata) Search(ctx context.Context, param prompt.SearchParam, oc OptionContext) ([]prompt.Option, error) {
	key := param.SearchParam
	if key == "" {
		key = "q"
	}
	query := strings.TrimSpace(oc.RequestParams[key])
	if query == "" {
		return []prompt.Option{}, nil
	}
	limit := param.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	ctx, span := w.startSpan(ctx, "wikidata.search")
	defer span.End()

	q := url.Values{}
	q.Set("action", "wbsearchentities")
	q.Set("search", query)
	q.Set("language", w.cfg.Language)
	q.Set("format", "json")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("type", "item")

	var resp struct {
		Search []struct {
			ID    string `json:"id"`
			Label string `json:"label"`
		} `json:"search"`
	}
	if err := w.getJSON(ctx, w.cfg.APIURL, q, "application/json", &resp); err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	out := make([]prompt.Option, 0, len(resp.Search))
	for _, item := range resp.Search {
		out = append(out, prompt.Option{ID: item.ID, Label: item.Label})
	}
	return out, nil
}

func (w *Wikidata) Dependent(ctx context.Context, param prompt.DependentParam, oc OptionContext) ([]prompt.Option, error) {
	if strings.TrimSpace(param.Query.SPARQL) == "" {
		return []prompt.Option{}, nil
	}
	limit := param.Limit
	if limit <= 0 {
		limit = defaultDependentLimit
	}
	query := RenderSPARQL(param.Query.SPARQL, oc.RequestParams, limit)

	ctx, span := w.startSpan(ctx, "wikidata.sparql")
	defer span.End()
	w.log.Debug("SPARQL query", "query", query)

	q := url.Values{}
	q.Set("format", "json")
	q.Set("query", query)

	var resp struct {
		Results struct {
			Bindings []map[string]struct {
				Value string `json:"value"`
			} `json:"bindings"`
		} `json:"results"`
	}
	if err := w.getJSON(ctx, w.cfg.SPARQLURL, q, "application/sparql-results+json", &resp); err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	seen := map[string]bool{}
	out := make([]prompt.Option, 0, len(resp.Results.Bindings))
	for _, b := range resp.Results.Bindings {
		id := b["id"].Value
		if i := strings.LastIndex(id, "/"); i >= 0 {
			id = id[i+1:]
		}
		if id == "" {
			continue
		}
		label := b["label"].Value
		if norm := strings.ToLower(strings.TrimSpace(label)); norm != "" {
			if seen[norm] {
				continue
			}
			seen[norm] = true
		}
		out = append(out, prompt.Option{ID: id, Label: label})
	}
	return out, nil
}

func (w *Wikidata) Resolve(ctx context.Context, ids []string, src prompt.PromptSource) (map[string]prompt.ResolvedEntity, error) {
	out := map[string]prompt.ResolvedEntity{}
	if len(ids) == 0 {
		return out, nil
	}
	labelLangs, aliasLangs := []string{"en"}, []string{"en"}
	if src.EntityResolver != nil {
		if l := src.EntityResolver.Config.LabelLangs; len(l) > 0 {
			labelLangs = l
		}
		if l := src.EntityResolver.Config.AliasLangs; len(l) > 0 {
			aliasLangs = l
		}
	}
	langs := unionLangs(labelLangs, aliasLangs)

	ctx, span := w.startSpan(ctx, "wikidata.resolve")
	defer span.End()
	span.SetAttributes(attribute.Int("wikidata.ids", len(ids)))

	for start := 0; start < len(ids); start += resolveChunkSize {
		end := start + resolveChunkSize
		if end > len(ids) {
			end = len(ids)
		}
		q := url.Values{}
		q.Set("action", "wbgetentities")
		q.Set("ids", strings.Join(ids[start:end], "|"))
		q.Set("format", "json")
		q.Set("props", "labels|aliases")
		q.Set("languages", strings.Join(langs, "|"))

		var resp struct {
			Entities map[string]struct {
				Labels  map[string]struct{ Value string } `json:"labels"`
				Aliases map[string][]struct{ Value string } `json:"aliases"`
			} `json:"entities"`
		}
		if err := w.getJSON(ctx, w.cfg.APIURL, q, "application/json", &resp); err != nil {
			recordSpanError(span, err)
			return nil, err
		}
		for id, ent := range resp.Entities {
			label := ""
			for _, lang := range labelLangs {
				if l, ok := ent.Labels[lang]; ok && l.Value != "" {
					label = l.Value
					break
				}
			}
			if label == "" {
				// any language, picked deterministically
				keys := make([]string, 0, len(ent.Labels))
				for k := range ent.Labels {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					if v := ent.Labels[k].Value; v != "" {
						label = v
						break
					}
				}
			}
			var keywords []string
			for _, lang := range aliasLangs {
				for _, a := range ent.Aliases[lang] {
					if a.Value != "" {
						keywords = append(keywords, a.Value)
					}
				}
			}
			if label == "" && len(keywords) == 0 {
				continue
			}
			out[id] = prompt.ResolvedEntity{Label: label, Keywords: keywords}
		}
	}
	return out, nil
}

// Only identifier placeholders are blanked; SPARQL itself may contain {{ }} groups.
var leftoverPlaceholder = regexp.MustCompile(`\{\{\s*\w+\s*\}\}`)

// RenderSPARQL substitutes {{key}} with the escaped request value for every
// non-empty request param and {{limit}} with limit. Placeholders with no
// value render as the empty string.
func RenderSPARQL(tmpl string, params map[string]string, limit int) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := tmpl
	for _, k := range keys {
		v := params[k]
		if v == "" {
			continue
		}
		out = strings.ReplaceAll(out, "{{"+k+"}}", strings.ReplaceAll(v, `"`, `\"`))
	}
	out = strings.ReplaceAll(out, "{{limit}}", strconv.Itoa(limit))
	return leftoverPlaceholder.ReplaceAllString(out, "")
}

func unionLangs(a, b []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, l := range append(append([]string{}, a...), b...) {
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}

func (w *Wikidata) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return otel.Tracer("providers").Start(ctx, name)
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func (w *Wikidata) getJSON(ctx context.Context, endpoint string, q url.Values, accept string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", w.cfg.UserAgent)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("wikidata request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("wikidata http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("wikidata decode: %w", err)
	}
	return nil
}
