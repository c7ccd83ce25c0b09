package drafts

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// Draft is an article kept locally until it is published
type Draft struct {
	BaseModel
	Title     string    `json:"title" gorm:"not null;default:''"`
	Content   string    `json:"content" gorm:"type:text;not null;default:''"`
	TagIDs    []string  `json:"tag_ids" gorm:"serializer:json"`
	ImagePath string    `json:"image_path"`           // Local file attached on publish
	PostID    string    `json:"post_id" gorm:"index"` // Set when the draft edits an existing post
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime;index"`
}

// IsEdit reports whether publishing updates an existing post
func (d *Draft) IsEdit() bool {
	return d.PostID != ""
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Draft{})
}
