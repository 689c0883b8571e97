package dto

import (
	"katalog/internal/models"

	"github.com/shopspring/decimal"
)

// CategoryRequest creates a category. Slug is derived from the name when
// empty; Parent is the parent's slug.
type CategoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Slug        string `json:"slug" validate:"omitempty,max=100,slug"`
	Parent      string `json:"parent" validate:"omitempty,max=100"`
	Description string `json:"description"`
}

// VariantRequest is one variant of a product write.
type VariantRequest struct {
	SKU        string            `json:"sku" validate:"required,max=100"`
	Name       string            `json:"name" validate:"max=200"`
	Attributes models.Attributes `json:"attributes"`
	Price      decimal.Decimal   `json:"price"`
	Stock      uint              `json:"stock"`
	IsActive   *bool             `json:"is_active"`
}

// MediaRequest is one media item of a product write.
type MediaRequest struct {
	URL       string `json:"url" validate:"required,url,max=500"`
	AltText   string `json:"alt_text" validate:"max=200"`
	MediaType string `json:"media_type" validate:"max=50"`
	SortOrder uint   `json:"sort_order"`
}

// ProductRequest is a full product record with its variants and media, used
// for both creation and replacement. Category is the category's slug.
type ProductRequest struct {
	Name        string            `json:"name" validate:"required,max=200"`
	Slug        string            `json:"slug" validate:"omitempty,max=200,slug"`
	Description string            `json:"description"`
	Category    string            `json:"category" validate:"required"`
	Attributes  models.Attributes `json:"attributes"`
	IsActive    *bool             `json:"is_active"`
	Variants    []VariantRequest  `json:"variants" validate:"dive"`
	Media       []MediaRequest    `json:"media" validate:"dive"`
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// Model converts the request into a product. Active flags default to true.
// The category is resolved by the caller.
func (r ProductRequest) Model() *models.Product {
	p := &models.Product{
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
		Attributes:  r.Attributes,
		IsActive:    boolOr(r.IsActive, true),
	}
	for _, v := range r.Variants {
		p.Variants = append(p.Variants, models.Variant{
			SKU:        v.SKU,
			Name:       v.Name,
			Attributes: v.Attributes,
			Price:      v.Price.Round(2),
			Stock:      v.Stock,
			IsActive:   boolOr(v.IsActive, true),
		})
	}
	for _, m := range r.Media {
		p.Media = append(p.Media, models.Media{
			URL:       m.URL,
			AltText:   m.AltText,
			MediaType: m.MediaType,
			SortOrder: m.SortOrder,
		})
	}
	return p
}
