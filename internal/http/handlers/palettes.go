package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/tilegen-backend/internal/domain/prompt"
	"github.com/yungbote/tilegen-backend/internal/http/response"
	"github.com/yungbote/tilegen-backend/internal/observability"
	"github.com/yungbote/tilegen-backend/internal/palettes"
	"github.com/yungbote/tilegen-backend/internal/platform/logger"
)

type PaletteHandler struct {
	log       *logger.Logger
	templates TemplateCatalog
	sources   SourceCatalog
	palettes  PaletteSuggester
	metrics   *observability.Metrics
}

func NewPaletteHandler(log *logger.Logger, templates TemplateCatalog, sources SourceCatalog, suggester PaletteSuggester, metrics *observability.Metrics) *PaletteHandler {
	return &PaletteHandler{
		log:       log.With("handler", "PaletteHandler"),
		templates: templates,
		sources:   sources,
		palettes:  suggester,
		metrics:   metrics,
	}
}

// GET /api/prompts/:id/palettes
func (h *PaletteHandler) Suggest(c *gin.Context) {
	id := c.Param("id")
	t, err := h.templates.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	if t == nil {
		response.RespondError(c, http.StatusNotFound, "template_not_found", errors.New("Template not found"))
		return
	}
	src, err := h.sources.Get(c.Request.Context(), t.ID)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	if src == nil || src.Color == nil {
		response.RespondOK(c, gin.H{
			"templateId":  t.ID,
			"suggestions": gin.H{"palettes": []prompt.Palette{}},
			"reason":      "No color module",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()
	req := palettes.SelectRequest(t.ID, *src.Color, queryParams(c))
	res := h.palettes.Suggest(ctx, req)
	outcome := "miss"
	if res.Cache.Hit {
		outcome = "hit"
	}
	h.metrics.IncPaletteRequest(req.Engine, outcome)

	strategy := ""
	if req.Strategy != nil {
		strategy = req.Strategy.ID
	}
	response.RespondOK(c, gin.H{
		"templateId":  t.ID,
		"suggestions": gin.H{"palettes": res.Palettes},
		"source":      gin.H{"provider": "color", "engine": req.Engine, "strategy": strategy},
		"cache":       res.Cache,
	})
}
