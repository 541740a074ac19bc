package response

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/tilegen-backend/internal/platform/apierr"
	"github.com/yungbote/tilegen-backend/internal/platform/logger"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	OK    bool     `json:"ok"`
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondAPIError maps err through apierr. Server-side failures are logged
// and answered with a generic message.
func RespondAPIError(c *gin.Context, log *logger.Logger, err error) {
	status, code := apierr.From(err)
	if status >= http.StatusInternalServerError {
		var ae *apierr.Error
		if !errors.As(err, &ae) {
			log.Error("request failed", "path", c.FullPath(), "error", err)
			RespondError(c, status, code, errors.New("internal error"))
			return
		}
		log.Warn("request failed upstream", "path", c.FullPath(), "code", code, "error", err)
	}
	RespondError(c, status, code, err)
}

func RespondRateLimited(c *gin.Context, retryAfter time.Duration) {
	secs := int((retryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	c.Header("Retry-After", strconv.Itoa(secs))
	RespondError(c, http.StatusTooManyRequests, "rate_limited", errors.New("Too many requests"))
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
