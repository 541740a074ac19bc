package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/tilegen-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:     uuid.New(),
		Email:  email,
		Name:   "Test User",
		Status: types.UserStatusActive,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedTile inserts a tile created at the given time so ordering is deterministic.
func SeedTile(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, templateID, cacheKey string, createdAt time.Time) *types.Tile {
	tb.Helper()
	t := &types.Tile{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		TemplateID: templateID,
		Title:      "tile",
		CacheKey:   cacheKey,
		Width:      1024,
		Height:     1024,
		Format:     "png",
		Seamless:   true,
		Visibility: types.VisibilityPrivate,
		MasterKey:  "tiles/" + cacheKey + "/master.png",
		Tags:       datatypes.JSON([]byte("[]")),
		Meta:       datatypes.JSON([]byte("{}")),
		CreatedAt:  createdAt,
	}
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed tile: %v", err)
	}
	return t
}
