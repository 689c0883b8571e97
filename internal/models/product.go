package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MediaTypeImage is the default media type.
const MediaTypeImage = "image"

// Attributes is a schema-less key/value mapping. Values are strings, numbers
// or booleans as decoded from JSON.
type Attributes map[string]any

// Product represents a product in the store. Variants and media belong to it
// and are removed together with it.
type Product struct {
	ID          string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string     `json:"name" gorm:"type:varchar(200);not null"`
	Slug        string     `json:"slug" gorm:"uniqueIndex;type:varchar(200);not null"`
	Description string     `json:"description" gorm:"type:text"`
	CategoryID  string     `json:"category_id" gorm:"type:varchar(36);not null;index:idx_products_category_active,priority:1"`
	Category    Category   `json:"category" gorm:"constraint:OnDelete:CASCADE"`
	Attributes  Attributes `json:"attributes" gorm:"type:jsonb;serializer:json"`
	IsActive    bool       `json:"is_active" gorm:"not null;index:idx_products_category_active,priority:2"`
	Variants    []Variant  `json:"variants" gorm:"constraint:OnDelete:CASCADE"`
	Media       []Media    `json:"media" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// BeforeCreate assigns an ID and derives the slug from the name when absent.
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Slug == "" {
		p.Slug = Slugify(p.Name)
	}
	return nil
}

// Variant is a purchasable configuration of a product with its own price and stock.
type Variant struct {
	ID         string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProductID  string          `json:"product_id" gorm:"type:varchar(36);not null;index:idx_variants_product_active,priority:1"`
	SKU        string          `json:"sku" gorm:"column:sku;uniqueIndex;type:varchar(100);not null"`
	Name       string          `json:"name" gorm:"type:varchar(200)"`
	Attributes Attributes      `json:"attributes" gorm:"type:jsonb;serializer:json"`
	Price      decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null;index"`
	Stock      uint            `json:"stock" gorm:"not null;default:0;index"`
	IsActive   bool            `json:"is_active" gorm:"not null;index:idx_variants_product_active,priority:2"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// BeforeCreate assigns an ID and normalises the price to two decimal places.
func (v *Variant) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	v.Price = v.Price.Round(2)
	return nil
}

// IsInStock reports whether at least one unit is available.
func (v Variant) IsInStock() bool {
	return v.Stock > 0
}

// Media is an image or other asset attached to a product. Display order is
// SortOrder, then CreatedAt.
type Media struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProductID string    `json:"product_id" gorm:"type:varchar(36);not null;index"`
	URL       string    `json:"url" gorm:"column:url;type:varchar(500);not null"`
	AltText   string    `json:"alt_text" gorm:"type:varchar(200)"`
	MediaType string    `json:"media_type" gorm:"type:varchar(50);not null;default:image"`
	SortOrder uint      `json:"sort_order" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName keeps the table name plural like the other catalog tables.
func (Media) TableName() string {
	return "media"
}

// BeforeCreate assigns an ID and defaults the media type.
func (m *Media) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.MediaType == "" {
		m.MediaType = MediaTypeImage
	}
	return nil
}
