package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/tilegen-backend/internal/domain/prompt"
	"github.com/yungbote/tilegen-backend/internal/http/response"
	"github.com/yungbote/tilegen-backend/internal/platform/ctxutil"
	"github.com/yungbote/tilegen-backend/internal/platform/logger"
	"github.com/yungbote/tilegen-backend/internal/promptsources"
)

const samplesPerTemplate = 3

type PromptHandler struct {
	log        *logger.Logger
	templates  TemplateCatalog
	sources    SourceCatalog
	options    OptionResolver
	tiles      RecentTiles
	tileURL    URLFunc
	production bool
}

type PromptHandlerDeps struct {
	Templates  TemplateCatalog
	Sources    SourceCatalog
	Options    OptionResolver
	Tiles      RecentTiles
	TileURL    URLFunc
	Production bool
}

func NewPromptHandler(log *logger.Logger, deps PromptHandlerDeps) *PromptHandler {
	return &PromptHandler{
		log:        log.With("handler", "PromptHandler"),
		templates:  deps.Templates,
		sources:    deps.Sources,
		options:    deps.Options,
		tiles:      deps.Tiles,
		tileURL:    deps.TileURL,
		production: deps.Production,
	}
}

// GET /api/prompts
// Templates without prompt text, each with the caller's latest tiles as samples.
func (h *PromptHandler) ListPrompts(c *gin.Context) {
	ctx := c.Request.Context()
	list, err := h.templates.List(ctx)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	rd := ctxutil.GetRequestData(ctx)
	out := make([]prompt.Template, 0, len(list))
	for _, t := range list {
		pub := t.Public()
		pub.Samples = []string{}
		if rd != nil {
			pub.Samples = h.samples(ctx, rd, t.ID)
		}
		out = append(out, pub)
	}
	response.RespondOK(c, gin.H{"ok": true, "templates": out})
}

func (h *PromptHandler) samples(ctx context.Context, rd *ctxutil.RequestData, templateID string) []string {
	urls := []string{}
	if h.tiles == nil || h.tileURL == nil {
		return urls
	}
	recent, err := h.tiles.ListRecentByOwnerTemplate(ctx, nil, rd.UserID, templateID, samplesPerTemplate)
	if err != nil {
		h.log.Warn("load samples failed", "template_id", templateID, "error", err)
		return urls
	}
	for _, t := range recent {
		if t.MasterKey == "" {
			continue
		}
		urls = append(urls, h.tileURL(t.MasterKey))
	}
	return urls
}

// loadTemplate answers 404 itself when the template is unknown.
func (h *PromptHandler) loadTemplate(c *gin.Context) (*prompt.Template, bool) {
	t, err := h.templates.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return nil, false
	}
	if t == nil {
		response.RespondError(c, http.StatusNotFound, "template_not_found", errors.New("Template not found"))
		return nil, false
	}
	return t, true
}

// GET /api/prompts/:id/options
func (h *PromptHandler) Options(c *gin.Context) {
	t, ok := h.loadTemplate(c)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()
	src, err := h.sources.Get(ctx, t.ID)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	res := h.options.Resolve(ctx, promptsources.OptionsRequest{
		Template:      *t,
		Source:        src,
		RequestParams: queryParams(c),
	})
	response.RespondOK(c, res)
}

// GET /api/prompts/:id/debug
func (h *PromptHandler) Debug(c *gin.Context) {
	if h.production {
		response.RespondError(c, http.StatusNotFound, "not_found", errors.New("Not available in production"))
		return
	}
	t, ok := h.loadTemplate(c)
	if !ok {
		return
	}
	src, err := h.sources.Get(c.Request.Context(), t.ID)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	if src == nil {
		response.RespondError(c, http.StatusNotFound, "source_not_found", errors.New("Source not found"))
		return
	}
	params := queryParams(c)
	response.RespondOK(c, gin.H{
		"templateId": t.ID,
		"params":     params,
		"queries":    promptsources.DescribeQueries(*src, params),
	})
}
