package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/tilegen-backend/internal/generation"
	"github.com/yungbote/tilegen-backend/internal/http/response"
	"github.com/yungbote/tilegen-backend/internal/platform/ctxutil"
	"github.com/yungbote/tilegen-backend/internal/platform/logger"
)

type GenerateHandler struct {
	log       *logger.Logger
	generator Generator
}

func NewGenerateHandler(log *logger.Logger, generator Generator) *GenerateHandler {
	return &GenerateHandler{log: log.With("handler", "GenerateHandler"), generator: generator}
}

type generateBody struct {
	TemplateID string         `json:"templateId"`
	Params     map[string]any `json:"params"`
}

type generateResponse struct {
	OK bool `json:"ok"`
	*generation.Result
}

// POST /api/ai/generate
func (h *GenerateHandler) Generate(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing or invalid token"))
		return
	}
	var body generateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("Expected JSON body"))
		return
	}
	if body.TemplateID == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("templateId required"))
		return
	}
	res, err := h.generator.Generate(c.Request.Context(), generation.Request{
		TemplateID: body.TemplateID,
		Params:     body.Params,
		UserID:     rd.UserID,
		Username:   rd.Username,
		ClientIP:   rd.ClientIP,
		UserAgent:  rd.UserAgent,
	})
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, generateResponse{OK: true, Result: res})
}
