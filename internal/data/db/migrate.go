package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/tilegen-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.User{},
		&types.Tile{},
		&types.Event{},
	)
}

// EnsureIndexes adds the composite indexes gorm tags cannot express.
func EnsureIndexes(db *gorm.DB) error {
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_tile_owner_template_created ON tile(owner_id, template_id, created_at);`).Error; err != nil {
		return fmt.Errorf("create idx_tile_owner_template_created: %w", err)
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_event_tile_type ON event(tile_id, type);`).Error; err != nil {
		return fmt.Errorf("create idx_event_tile_type: %w", err)
	}
	return nil
}
