package dto

import (
	"time"

	"katalog/internal/models"

	"github.com/shopspring/decimal"
)

// MaxCategoryDepth bounds how many levels of children a category projection
// nests.
const MaxCategoryDepth = 64

// CategoryNode is a category with its subtree.
type CategoryNode struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Slug        string         `json:"slug"`
	Parent      *string        `json:"parent"`
	Description string         `json:"description"`
	Children    []CategoryNode `json:"children"`
	CreatedAt   time.Time      `json:"created_at"`
}

// CategoryTree indexes categories by parent so subtrees can be projected
// without further queries.
type CategoryTree struct {
	children map[string][]models.Category
}

// NewCategoryTree indexes all. Order within each level follows all.
func NewCategoryTree(all []models.Category) *CategoryTree {
	children := make(map[string][]models.Category)
	for _, c := range all {
		if c.ParentID != nil {
			children[*c.ParentID] = append(children[*c.ParentID], c)
		}
	}
	return &CategoryTree{children: children}
}

// Node projects c together with its descendants, down to MaxCategoryDepth
// levels. A category is never emitted twice within one projection.
func (t *CategoryTree) Node(c models.Category) CategoryNode {
	return t.node(c, 0, map[string]bool{c.ID: true})
}

func (t *CategoryTree) node(c models.Category, depth int, seen map[string]bool) CategoryNode {
	n := CategoryNode{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Parent:      c.ParentID,
		Description: c.Description,
		Children:    []CategoryNode{},
		CreatedAt:   c.CreatedAt,
	}
	if t == nil || depth >= MaxCategoryDepth {
		return n
	}
	for _, child := range t.children[c.ID] {
		if seen[child.ID] {
			continue
		}
		seen[child.ID] = true
		n.Children = append(n.Children, t.node(child, depth+1, seen))
	}
	return n
}

// VariantOut is the public shape of a variant.
type VariantOut struct {
	ID         string            `json:"id"`
	SKU        string            `json:"sku"`
	Name       string            `json:"name"`
	Attributes models.Attributes `json:"attributes"`
	Price      string            `json:"price"`
	Stock      uint              `json:"stock"`
	IsInStock  bool              `json:"is_in_stock"`
	IsActive   bool              `json:"is_active"`
}

// MediaOut is the public shape of a media item.
type MediaOut struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	AltText   string `json:"alt_text"`
	MediaType string `json:"media_type"`
	SortOrder uint   `json:"sort_order"`
}

// ProductListItem is the summary shape used in listings.
type ProductListItem struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Slug         string            `json:"slug"`
	Description  string            `json:"description"`
	Category     string            `json:"category"`
	CategoryName string            `json:"category_name"`
	Attributes   models.Attributes `json:"attributes"`
	IsActive     bool              `json:"is_active"`
	PriceRange   *string           `json:"price_range"`
	InStock      bool              `json:"in_stock"`
	PrimaryImage *string           `json:"primary_image"`
	CreatedAt    time.Time         `json:"created_at"`
}

// ProductDetail is the full shape of a single product.
type ProductDetail struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Slug        string            `json:"slug"`
	Description string            `json:"description"`
	Category    CategoryNode      `json:"category"`
	Attributes  models.Attributes `json:"attributes"`
	IsActive    bool              `json:"is_active"`
	Variants    []VariantOut      `json:"variants"`
	Media       []MediaOut        `json:"media"`
	PriceRange  *string           `json:"price_range"`
	InStock     bool              `json:"in_stock"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Stats are the catalog aggregates.
type Stats struct {
	TotalProducts   int64 `json:"total_products"`
	TotalCategories int64 `json:"total_categories"`
	TotalVariants   int64 `json:"total_variants"`
	InStockProducts int64 `json:"in_stock_products"`
}

// FormatPrice renders a price with a currency sign and two decimals.
func FormatPrice(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// PriceRange formats the spread of active variant prices: nil without active
// variants, one price when all are equal, "min - max" otherwise.
func PriceRange(variants []models.Variant) *string {
	var lo, hi decimal.Decimal
	found := false
	for _, v := range variants {
		if !v.IsActive {
			continue
		}
		if !found || v.Price.LessThan(lo) {
			lo = v.Price
		}
		if !found || v.Price.GreaterThan(hi) {
			hi = v.Price
		}
		found = true
	}
	if !found {
		return nil
	}

	s := FormatPrice(lo)
	if !lo.Equal(hi) {
		s += " - " + FormatPrice(hi)
	}
	return &s
}

// InStock reports whether any active variant has stock.
func InStock(variants []models.Variant) bool {
	for _, v := range variants {
		if v.IsActive && v.IsInStock() {
			return true
		}
	}
	return false
}

// PrimaryImage returns the URL of the first image in display order. media
// must already be sorted by sort order and creation time.
func PrimaryImage(media []models.Media) *string {
	for _, m := range media {
		if m.MediaType == models.MediaTypeImage {
			url := m.URL
			return &url
		}
	}
	return nil
}

func attributesOrEmpty(a models.Attributes) models.Attributes {
	if a == nil {
		return models.Attributes{}
	}
	return a
}

// NewProductListItem projects p for a listing.
func NewProductListItem(p models.Product) ProductListItem {
	return ProductListItem{
		ID:           p.ID,
		Name:         p.Name,
		Slug:         p.Slug,
		Description:  p.Description,
		Category:     p.CategoryID,
		CategoryName: p.Category.Name,
		Attributes:   attributesOrEmpty(p.Attributes),
		IsActive:     p.IsActive,
		PriceRange:   PriceRange(p.Variants),
		InStock:      InStock(p.Variants),
		PrimaryImage: PrimaryImage(p.Media),
		CreatedAt:    p.CreatedAt,
	}
}

// NewProductListItems projects a page of products.
func NewProductListItems(products []models.Product) []ProductListItem {
	items := make([]ProductListItem, 0, len(products))
	for _, p := range products {
		items = append(items, NewProductListItem(p))
	}
	return items
}

// NewVariantOut projects a variant.
func NewVariantOut(v models.Variant) VariantOut {
	return VariantOut{
		ID:         v.ID,
		SKU:        v.SKU,
		Name:       v.Name,
		Attributes: attributesOrEmpty(v.Attributes),
		Price:      v.Price.StringFixed(2),
		Stock:      v.Stock,
		IsInStock:  v.IsInStock(),
		IsActive:   v.IsActive,
	}
}

// NewProductDetail projects p with its category subtree taken from tree.
func NewProductDetail(p models.Product, tree *CategoryTree) ProductDetail {
	variants := make([]VariantOut, 0, len(p.Variants))
	for _, v := range p.Variants {
		variants = append(variants, NewVariantOut(v))
	}
	media := make([]MediaOut, 0, len(p.Media))
	for _, m := range p.Media {
		media = append(media, MediaOut{
			ID:        m.ID,
			URL:       m.URL,
			AltText:   m.AltText,
			MediaType: m.MediaType,
			SortOrder: m.SortOrder,
		})
	}

	return ProductDetail{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Category:    tree.Node(p.Category),
		Attributes:  attributesOrEmpty(p.Attributes),
		IsActive:    p.IsActive,
		Variants:    variants,
		Media:       media,
		PriceRange:  PriceRange(p.Variants),
		InStock:     InStock(p.Variants),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
