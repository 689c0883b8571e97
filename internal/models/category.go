package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category groups products. Categories form a tree through ParentID; removing
// a parent removes its whole subtree through the foreign key cascade.
type Category struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string    `json:"name" gorm:"uniqueIndex;type:varchar(100);not null"`
	Slug        string    `json:"slug" gorm:"uniqueIndex;type:varchar(100);not null"`
	ParentID    *string   `json:"parent" gorm:"type:varchar(36);index"`
	Parent      *Category `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Description string    `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeCreate assigns an ID and derives the slug from the name when absent.
func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Slug == "" {
		c.Slug = Slugify(c.Name)
	}
	return nil
}
