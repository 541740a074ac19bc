package tile

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Visibility string

const (
	VisibilityPublic   Visibility = "public"
	VisibilityUnlisted Visibility = "unlisted"
	VisibilityPrivate  Visibility = "private"
)

// Tile is one stored seamless image. Clones of a generated tile share the
// source tile's MasterKey.
type Tile struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID     uuid.UUID      `gorm:"type:uuid;not null;index;column:owner_id" json:"owner_id"`
	TemplateID  string         `gorm:"index;column:template_id" json:"template_id,omitempty"`
	Title       string         `gorm:"not null;column:title" json:"title"`
	Description string         `gorm:"column:description" json:"description,omitempty"`
	Tags        datatypes.JSON `gorm:"column:tags" json:"tags,omitempty"`
	CacheKey    string         `gorm:"index;column:cache_key" json:"cache_key,omitempty"`
	Width       int            `gorm:"column:width" json:"width,omitempty"`
	Height      int            `gorm:"column:height" json:"height,omitempty"`
	Format      string         `gorm:"column:format" json:"format,omitempty"`
	Seamless    bool           `gorm:"not null;default:true;column:seamless" json:"seamless"`
	Visibility  Visibility     `gorm:"not null;default:'private';column:visibility" json:"visibility"`
	MasterKey   string         `gorm:"column:master_key" json:"master_key,omitempty"`
	SizeBytes   int64          `gorm:"column:size_bytes" json:"size_bytes,omitempty"`
	Meta        datatypes.JSON `gorm:"column:meta" json:"meta,omitempty"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Tile) TableName() string { return "tile" }

func (t *Tile) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

type EventType string

const (
	EventView       EventType = "view"
	EventUpload     EventType = "upload"
	EventAIGenerate EventType = "ai_generate"
	EventAICloned   EventType = "ai_clone"
)

// Event is an append-only usage record. IPHash is a sha256 of the client
// address; raw addresses are never stored.
type Event struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Type      EventType      `gorm:"not null;index;column:type" json:"type"`
	UserID    *uuid.UUID     `gorm:"type:uuid;index;column:user_id" json:"user_id,omitempty"`
	TileID    *uuid.UUID     `gorm:"type:uuid;index;column:tile_id" json:"tile_id,omitempty"`
	IPHash    string         `gorm:"column:ip_hash" json:"ip_hash,omitempty"`
	UserAgent string         `gorm:"column:user_agent" json:"user_agent,omitempty"`
	Meta      datatypes.JSON `gorm:"column:meta" json:"meta,omitempty"`
	CreatedAt time.Time      `gorm:"not null;autoCreateTime;index" json:"created_at"`
}

func (Event) TableName() string { return "event" }

func (e *Event) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
