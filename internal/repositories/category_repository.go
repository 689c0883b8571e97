package repositories

import (
	"context"

	"katalog/internal/models"
)

// CategoryFilter narrows and orders a category listing.
type CategoryFilter struct {
	Search   string
	Ordering string
}

// CategoryRepository defines the interface for category data access.
type CategoryRepository interface {
	List(ctx context.Context, f CategoryFilter, limit, offset int) ([]models.Category, int64, error)
	// All returns every category; used to assemble subtrees in memory.
	All(ctx context.Context) ([]models.Category, error)
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	Count(ctx context.Context) (int64, error)
}
