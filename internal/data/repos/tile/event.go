package tile

import (
	"context"

	"gorm.io/gorm"

	types "github.com/yungbote/tilegen-backend/internal/domain"
	"github.com/yungbote/tilegen-backend/internal/platform/logger"
)

type EventRepo interface {
	Create(ctx context.Context, tx *gorm.DB, events []*types.Event) ([]*types.Event, error)
	CountByType(ctx context.Context, tx *gorm.DB, eventType types.EventType) (int64, error)
}

type eventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEventRepo(db *gorm.DB, baseLog *logger.Logger) EventRepo {
	repoLog := baseLog.With("repo", "EventRepo")
	return &eventRepo{db: db, log: repoLog}
}

func (er *eventRepo) Create(ctx context.Context, tx *gorm.DB, events []*types.Event) ([]*types.Event, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	if len(events) == 0 {
		return []*types.Event{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (er *eventRepo) CountByType(ctx context.Context, tx *gorm.DB, eventType types.EventType) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Event{}).
		Where("type = ?", eventType).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
