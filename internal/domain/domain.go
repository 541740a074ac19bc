package domain

import (
	"github.com/yungbote/tilegen-backend/internal/domain/tile"
	"github.com/yungbote/tilegen-backend/internal/domain/user"
)

type User = user.User
type UserRole = user.Role
type UserStatus = user.Status

const (
	UserRoleUser    = user.RoleUser
	UserRoleCreator = user.RoleCreator
	UserRoleAdmin   = user.RoleAdmin

	UserStatusPending  = user.StatusPending
	UserStatusActive   = user.StatusActive
	UserStatusDisabled = user.StatusDisabled
)

type Tile = tile.Tile
type TileVisibility = tile.Visibility
type Event = tile.Event
type EventType = tile.EventType

const (
	VisibilityPublic   = tile.VisibilityPublic
	VisibilityUnlisted = tile.VisibilityUnlisted
	VisibilityPrivate  = tile.VisibilityPrivate

	EventView       = tile.EventView
	EventUpload     = tile.EventUpload
	EventAIGenerate = tile.EventAIGenerate
	EventAICloned   = tile.EventAICloned
)
