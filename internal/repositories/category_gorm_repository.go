package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"katalog/internal/domain"
	"katalog/internal/models"

	"gorm.io/gorm"
)

var categoryOrderings = map[string]string{
	"name":       "categories.name",
	"created_at": "categories.created_at",
}

// GORMCategoryRepository is a GORM implementation of CategoryRepository.
type GORMCategoryRepository struct {
	db *gorm.DB
}

// NewGORMCategoryRepository creates a new instance of GORMCategoryRepository.
func NewGORMCategoryRepository(db *gorm.DB) *GORMCategoryRepository {
	return &GORMCategoryRepository{db: db}
}

// List retrieves one page of categories. Search matches name or description
// case-insensitively; ordering defaults to name.
func (r *GORMCategoryRepository) List(ctx context.Context, f CategoryFilter, limit, offset int) ([]models.Category, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Category{})
	if term := strings.TrimSpace(f.Search); term != "" {
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		q = q.Where("(LOWER(categories.name) LIKE ? ESCAPE '\\' OR LOWER(categories.description) LIKE ? ESCAPE '\\')", pattern, pattern)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count categories: %w", err)
	}

	categories := []models.Category{}
	if total == 0 || offset >= int(total) {
		return categories, total, nil
	}

	key := strings.TrimSpace(f.Ordering)
	column, ok := categoryOrderings[strings.TrimPrefix(key, "-")]
	if !ok {
		key, column = "name", categoryOrderings["name"]
	}
	if strings.HasPrefix(key, "-") {
		column += " DESC"
	}
	q = q.Order(column).Order("categories.id").Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&categories).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, total, nil
}

// All retrieves every category ordered by name.
func (r *GORMCategoryRepository) All(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).Order("name").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	return categories, nil
}

// GetBySlug retrieves a single category by its slug.
func (r *GORMCategoryRepository) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "slug = ?", slug).Error; err != nil {
		return nil, translate(fmt.Sprintf("failed to get category %q", slug), err)
	}
	return &category, nil
}

// Create inserts a category. Name and slug collisions surface as
// *domain.DuplicateError.
func (r *GORMCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	err := translate("failed to create category", r.db.WithContext(ctx).Omit("Parent").Create(category).Error)
	if !errors.Is(err, domain.ErrDuplicate) {
		return err
	}
	db := r.db.WithContext(ctx)
	if exists(db, &models.Category{}, "name = ?", category.Name) {
		return &domain.DuplicateError{Field: "name", Value: category.Name}
	}
	if exists(db, &models.Category{}, "slug = ?", category.Slug) {
		return &domain.DuplicateError{Field: "slug", Value: category.Slug}
	}
	return err
}

// Count counts all categories.
func (r *GORMCategoryRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Category{}).Count(&n).Error
	return n, translate("failed to count categories", err)
}
