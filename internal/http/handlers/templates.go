package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/tilegen-backend/internal/domain/prompt"
	"github.com/yungbote/tilegen-backend/internal/http/response"
	"github.com/yungbote/tilegen-backend/internal/platform/logger"
)

type TemplateHandler struct {
	log       *logger.Logger
	templates TemplateCatalog
}

func NewTemplateHandler(log *logger.Logger, templates TemplateCatalog) *TemplateHandler {
	return &TemplateHandler{log: log.With("handler", "TemplateHandler"), templates: templates}
}

// GET /api/templates
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	list, err := h.templates.List(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	out := make([]prompt.Template, 0, len(list))
	for _, t := range list {
		out = append(out, t.Public())
	}
	response.RespondOK(c, gin.H{"ok": true, "templates": out})
}

// GET /api/templates/:id
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	t, err := h.templates.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	if t == nil {
		response.RespondError(c, http.StatusNotFound, "template_not_found", errors.New("Template not found"))
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "template": t.Public()})
}
