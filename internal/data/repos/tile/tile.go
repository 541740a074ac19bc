package tile

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/tilegen-backend/internal/domain"
	"github.com/yungbote/tilegen-backend/internal/platform/logger"
)

type TileRepo interface {
	Create(ctx context.Context, tx *gorm.DB, tiles []*types.Tile) ([]*types.Tile, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, tileIDs []uuid.UUID) ([]*types.Tile, error)
	GetByCacheKey(ctx context.Context, tx *gorm.DB, cacheKey string) (*types.Tile, error)
	GetByCacheKeyForOwner(ctx context.Context, tx *gorm.DB, cacheKey string, ownerID uuid.UUID) (*types.Tile, error)
	ListRecentByOwnerTemplate(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, templateID string, limit int) ([]*types.Tile, error)
}

type tileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTileRepo(db *gorm.DB, baseLog *logger.Logger) TileRepo {
	repoLog := baseLog.With("repo", "TileRepo")
	return &tileRepo{db: db, log: repoLog}
}

func (tr *tileRepo) Create(ctx context.Context, tx *gorm.DB, tiles []*types.Tile) ([]*types.Tile, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	if len(tiles) == 0 {
		return []*types.Tile{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&tiles).Error; err != nil {
		return nil, err
	}
	return tiles, nil
}

func (tr *tileRepo) GetByIDs(ctx context.Context, tx *gorm.DB, tileIDs []uuid.UUID) ([]*types.Tile, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var results []*types.Tile
	if len(tileIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", tileIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetByCacheKey returns the earliest tile generated for cacheKey, or nil.
func (tr *tileRepo) GetByCacheKey(ctx context.Context, tx *gorm.DB, cacheKey string) (*types.Tile, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var t types.Tile
	err := transaction.WithContext(ctx).
		Where("cache_key = ?", cacheKey).
		Order("created_at ASC").
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (tr *tileRepo) GetByCacheKeyForOwner(ctx context.Context, tx *gorm.DB, cacheKey string, ownerID uuid.UUID) (*types.Tile, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var t types.Tile
	err := transaction.WithContext(ctx).
		Where("cache_key = ? AND owner_id = ?", cacheKey, ownerID).
		Order("created_at ASC").
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (tr *tileRepo) ListRecentByOwnerTemplate(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, templateID string, limit int) ([]*types.Tile, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	if limit <= 0 {
		limit = 3
	}
	var results []*types.Tile
	if err := transaction.WithContext(ctx).
		Where("owner_id = ? AND template_id = ?", ownerID, templateID).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
