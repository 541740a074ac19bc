package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/tilegen-backend/internal/data/repos/tile"
	"github.com/yungbote/tilegen-backend/internal/data/repos/user"
	"github.com/yungbote/tilegen-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type TileRepo = tile.TileRepo
type EventRepo = tile.EventRepo

type Repos struct {
	User  UserRepo
	Tile  TileRepo
	Event EventRepo
}

func New(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		User:  user.NewUserRepo(db, log),
		Tile:  tile.NewTileRepo(db, log),
		Event: tile.NewEventRepo(db, log),
	}
}
