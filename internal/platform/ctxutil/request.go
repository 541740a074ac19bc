package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type requestDataKey struct{}

// RequestData describes the caller of one HTTP request. The request
// middleware seeds the transport fields; auth fills in the user.
type RequestData struct {
	RequestID string
	TraceID   string
	ClientIP  string
	UserAgent string

	UserID   uuid.UUID
	Username string
}

func (rd *RequestData) Authenticated() bool {
	return rd != nil && rd.UserID != uuid.Nil
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}
