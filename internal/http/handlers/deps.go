package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/tilegen-backend/internal/domain"
	"github.com/yungbote/tilegen-backend/internal/domain/prompt"
	"github.com/yungbote/tilegen-backend/internal/generation"
	"github.com/yungbote/tilegen-backend/internal/palettes"
	"github.com/yungbote/tilegen-backend/internal/promptsources"
)

type TemplateCatalog interface {
	List(ctx context.Context) ([]prompt.Template, error)
	Get(ctx context.Context, id string) (*prompt.Template, error)
}

type SourceCatalog interface {
	Get(ctx context.Context, id string) (*prompt.PromptSource, error)
}

type OptionResolver interface {
	Resolve(ctx context.Context, req promptsources.OptionsRequest) promptsources.OptionsResult
}

type PaletteSuggester interface {
	Suggest(ctx context.Context, req palettes.SuggestRequest) palettes.Suggestion
}

type Generator interface {
	Generate(ctx context.Context, req generation.Request) (*generation.Result, error)
}

type RecentTiles interface {
	ListRecentByOwnerTemplate(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, templateID string, limit int) ([]*types.Tile, error)
}

// URLFunc maps a stored object key to a URL the client can load.
type URLFunc func(key string) string

const requestTimeout = 15 * time.Second

// queryParams flattens the query string, keeping the first value per key.
func queryParams(c *gin.Context) map[string]string {
	out := map[string]string{}
	for k, v := range c.Request.URL.Query() {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}
