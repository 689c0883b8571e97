package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"katalog/internal/domain"
	"katalog/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultProductOrdering lists the newest products first.
const DefaultProductOrdering = "-created_at"

var productOrderings = map[string]string{
	"name":       "products.name",
	"created_at": "products.created_at",
	"price":      "(SELECT MIN(op.price) FROM variants op WHERE op.product_id = products.id)",
}

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db     *gorm.DB
	search SearchStrategy
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
// search decides how the Search criterion of a ProductFilter is matched.
func NewGORMProductRepository(db *gorm.DB, search SearchStrategy) *GORMProductRepository {
	if search == nil {
		search = SubstringSearch{}
	}
	return &GORMProductRepository{
		db:     db,
		search: search,
	}
}

// SearchStrategy returns the strategy chosen for this repository.
func (r *GORMProductRepository) SearchStrategy() SearchStrategy {
	return r.search
}

// filtered builds the WHERE part of a listing. Criteria on variants are
// semi-joins, so each product appears at most once however many of its
// variants match.
func (r *GORMProductRepository) filtered(ctx context.Context, f ProductFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Product{}).Where("products.is_active = ?", true)

	if f.CategorySlug != "" {
		q = q.Where("products.category_id IN (SELECT c.id FROM categories c WHERE c.slug = ?)", f.CategorySlug)
	}

	if f.MinPrice != nil || f.MaxPrice != nil {
		conds := []string{"pv.product_id = products.id"}
		var args []interface{}
		if f.MinPrice != nil {
			conds = append(conds, "pv.price >= ?")
			args = append(args, *f.MinPrice)
		}
		if f.MaxPrice != nil {
			conds = append(conds, "pv.price <= ?")
			args = append(args, *f.MaxPrice)
		}
		q = q.Where("EXISTS (SELECT 1 FROM variants pv WHERE "+strings.Join(conds, " AND ")+")", args...)
	}

	if f.InStock {
		q = q.Where("EXISTS (SELECT 1 FROM variants sv WHERE sv.product_id = products.id AND sv.stock > 0)")
	}

	if term := strings.TrimSpace(f.Search); term != "" {
		q = r.search.Apply(q, term)
	}
	return q
}

// ordered applies the requested ordering. An explicit ordering always wins;
// without one, full-text results are ranked by relevance and everything else
// falls back to DefaultProductOrdering. Unknown keys also use the default.
func (r *GORMProductRepository) ordered(q *gorm.DB, f ProductFilter) *gorm.DB {
	key := strings.TrimSpace(f.Ordering)
	if key == "" {
		if term := strings.TrimSpace(f.Search); term != "" {
			if rank := r.search.Rank(term); rank != nil {
				return q.Clauses(rank)
			}
		}
	}

	desc := strings.HasPrefix(key, "-")
	column, ok := productOrderings[strings.TrimPrefix(key, "-")]
	if !ok {
		desc = true
		column = productOrderings["created_at"]
	}
	if desc {
		column += " DESC"
	}
	return q.Order(column).Order("products.id")
}

func withProductRelations(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Category").
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("variants.sku")
		}).
		Preload("Media", func(db *gorm.DB) *gorm.DB {
			return db.Order("media.sort_order").Order("media.created_at")
		})
}

// List retrieves one page of matching active products with their category,
// variants and media loaded.
func (r *GORMProductRepository) List(ctx context.Context, f ProductFilter, limit, offset int) ([]models.Product, int64, error) {
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	products := []models.Product{}
	if total == 0 || offset >= int(total) {
		return products, total, nil
	}

	q := r.ordered(r.filtered(ctx, f), f)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := withProductRelations(q).Offset(offset).Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// GetActiveBySlug retrieves an active product. Inactive products are reported
// as not found.
func (r *GORMProductRepository) GetActiveBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := withProductRelations(r.db.WithContext(ctx)).
		Where("slug = ? AND is_active = ?", slug, true).
		First(&product).Error
	if err != nil {
		return nil, translate(fmt.Sprintf("failed to get product %q", slug), err)
	}
	return &product, nil
}

// GetBySlug retrieves a product regardless of its active flag.
func (r *GORMProductRepository) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := withProductRelations(r.db.WithContext(ctx)).
		Where("slug = ?", slug).
		First(&product).Error
	if err != nil {
		return nil, translate(fmt.Sprintf("failed to get product %q", slug), err)
	}
	return &product, nil
}

// Create inserts a product together with its variants and media.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	err := r.db.WithContext(ctx).Omit("Category").Create(product).Error
	if err != nil {
		return r.duplicate(ctx, product, translate("failed to create product", err))
	}
	return nil
}

// Update replaces the product's fields and its full set of variants and media
// in one transaction.
func (r *GORMProductRepository) Update(ctx context.Context, product *models.Product) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Product{ID: product.ID}).
			Select("Name", "Slug", "Description", "CategoryID", "Attributes", "IsActive", "UpdatedAt").
			Omit(clause.Associations).
			Updates(product)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := tx.Where("product_id = ?", product.ID).Delete(&models.Variant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", product.ID).Delete(&models.Media{}).Error; err != nil {
			return err
		}
		for i := range product.Variants {
			product.Variants[i].ProductID = product.ID
		}
		for i := range product.Media {
			product.Media[i].ProductID = product.ID
		}
		if len(product.Variants) > 0 {
			if err := tx.Create(&product.Variants).Error; err != nil {
				return err
			}
		}
		if len(product.Media) > 0 {
			if err := tx.Create(&product.Media).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return r.duplicate(ctx, product, translate(fmt.Sprintf("failed to update product %q", product.Slug), err))
	}
	return nil
}

// DeleteBySlug removes a product; its variants and media go with it.
func (r *GORMProductRepository) DeleteBySlug(ctx context.Context, slug string) error {
	res := r.db.WithContext(ctx).Where("slug = ?", slug).Delete(&models.Product{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %q not found for deletion: %w", slug, domain.ErrNotFound)
	}
	return nil
}

// CountActive counts active products.
func (r *GORMProductRepository) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("is_active = ?", true).Count(&n).Error
	return n, translate("failed to count products", err)
}

// CountActiveVariants counts active variants.
func (r *GORMProductRepository) CountActiveVariants(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Variant{}).Where("is_active = ?", true).Count(&n).Error
	return n, translate("failed to count variants", err)
}

// CountInStock counts active products with at least one active variant in stock.
func (r *GORMProductRepository) CountInStock(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("products.is_active = ?", true).
		Where("EXISTS (SELECT 1 FROM variants v WHERE v.product_id = products.id AND v.is_active = ? AND v.stock > 0)", true).
		Count(&n).Error
	return n, translate("failed to count in-stock products", err)
}

// duplicate names the field behind a uniqueness violation. The driver error
// does not say which constraint failed, so each candidate is checked.
func (r *GORMProductRepository) duplicate(ctx context.Context, product *models.Product, err error) error {
	if !errors.Is(err, domain.ErrDuplicate) {
		return err
	}
	db := r.db.WithContext(ctx)
	if exists(db, &models.Product{}, "slug = ? AND id <> ?", product.Slug, product.ID) {
		return &domain.DuplicateError{Field: "slug", Value: product.Slug}
	}
	for _, v := range product.Variants {
		if exists(db, &models.Variant{}, "sku = ? AND product_id <> ?", v.SKU, product.ID) {
			return &domain.DuplicateError{Field: "sku", Value: v.SKU}
		}
	}
	seen := make(map[string]bool, len(product.Variants))
	for _, v := range product.Variants {
		if seen[v.SKU] {
			return &domain.DuplicateError{Field: "sku", Value: v.SKU}
		}
		seen[v.SKU] = true
	}
	return err
}
