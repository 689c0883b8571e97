package repositories

import (
	"context"

	"katalog/internal/models"

	"github.com/shopspring/decimal"
)

// ProductFilter holds the optional, AND-combined criteria of a product listing.
// Zero values mean "no restriction".
type ProductFilter struct {
	Search       string
	CategorySlug string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	InStock      bool
	Ordering     string
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	// List returns one page of active products matching f and the total number
	// of distinct matches.
	List(ctx context.Context, f ProductFilter, limit, offset int) ([]models.Product, int64, error)
	GetActiveBySlug(ctx context.Context, slug string) (*models.Product, error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	DeleteBySlug(ctx context.Context, slug string) error

	CountActive(ctx context.Context) (int64, error)
	CountActiveVariants(ctx context.Context) (int64, error)
	CountInStock(ctx context.Context) (int64, error)
}
