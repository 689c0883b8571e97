package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"katalog/internal/domain"
	"katalog/internal/dto"
	"katalog/internal/models"
	"katalog/internal/repositories"
	"katalog/pkg/cache"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const statsCacheKey = "catalog:stats"

var maxVariantPrice = decimal.RequireFromString("99999999.99")

// CatalogService handles business logic related to categories and products.
type CatalogService struct {
	products   repositories.ProductRepository
	categories repositories.CategoryRepository
	cache      cache.Cache
	statsTTL   time.Duration
	log        zerolog.Logger
}

// NewCatalogService creates a new CatalogService. Stats are cached in c for
// statsTTL.
func NewCatalogService(products repositories.ProductRepository, categories repositories.CategoryRepository, c cache.Cache, statsTTL time.Duration, log zerolog.Logger) *CatalogService {
	if c == nil {
		c = cache.NewMemoryCache()
	}
	return &CatalogService{
		products:   products,
		categories: categories,
		cache:      c,
		statsTTL:   statsTTL,
		log:        log.With().Str("component", "catalog").Logger(),
	}
}

// ListCategories returns one page of categories, each with its subtree.
func (s *CatalogService) ListCategories(ctx context.Context, f repositories.CategoryFilter, page dto.PageRequest) ([]dto.CategoryNode, int64, error) {
	page.Normalize()
	if page.Page < 1 {
		return nil, 0, domain.ErrInvalidPage
	}

	categories, total, err := s.categories.List(ctx, f, page.PageSize, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	if !page.Valid(total) {
		return nil, 0, domain.ErrInvalidPage
	}
	if len(categories) == 0 {
		return []dto.CategoryNode{}, total, nil
	}

	all, err := s.categories.All(ctx)
	if err != nil {
		return nil, 0, err
	}
	tree := dto.NewCategoryTree(all)
	nodes := make([]dto.CategoryNode, 0, len(categories))
	for _, c := range categories {
		nodes = append(nodes, tree.Node(c))
	}
	return nodes, total, nil
}

// ListProducts returns one page of active products matching f.
func (s *CatalogService) ListProducts(ctx context.Context, f repositories.ProductFilter, page dto.PageRequest) ([]dto.ProductListItem, int64, error) {
	page.Normalize()
	if page.Page < 1 {
		return nil, 0, domain.ErrInvalidPage
	}

	start := time.Now()
	products, total, err := s.products.List(ctx, f, page.PageSize, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	s.log.Info().
		Dur("elapsed", time.Since(start)).
		Int64("total", total).
		Str("search", f.Search).
		Msg("product list query")

	if !page.Valid(total) {
		return nil, 0, domain.ErrInvalidPage
	}
	return dto.NewProductListItems(products), total, nil
}

// GetProduct returns the detail projection of an active product.
func (s *CatalogService) GetProduct(ctx context.Context, slug string) (*dto.ProductDetail, error) {
	start := time.Now()
	product, err := s.products.GetActiveBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	detail, err := s.detail(ctx, product)
	if err != nil {
		return nil, err
	}
	s.log.Info().Dur("elapsed", time.Since(start)).Str("slug", slug).Msg("product detail query")
	return detail, nil
}

func (s *CatalogService) detail(ctx context.Context, product *models.Product) (*dto.ProductDetail, error) {
	all, err := s.categories.All(ctx)
	if err != nil {
		return nil, err
	}
	d := dto.NewProductDetail(*product, dto.NewCategoryTree(all))
	return &d, nil
}

// Stats returns the catalog aggregates, served from cache while fresh.
func (s *CatalogService) Stats(ctx context.Context) (dto.Stats, error) {
	var stats dto.Stats
	found, err := s.cache.Get(ctx, statsCacheKey, &stats)
	if err != nil {
		s.log.Warn().Err(err).Msg("stats cache read failed")
	}
	if found {
		return stats, nil
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalProducts, err = s.products.CountActive(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalCategories, err = s.categories.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalVariants, err = s.products.CountActiveVariants(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.InStockProducts, err = s.products.CountInStock(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return dto.Stats{}, fmt.Errorf("failed to compute catalog stats: %w", err)
	}
	s.log.Info().Dur("elapsed", time.Since(start)).Msg("product stats query")

	if err := s.cache.Set(ctx, statsCacheKey, stats, s.statsTTL); err != nil {
		s.log.Warn().Err(err).Msg("stats cache write failed")
	}
	return stats, nil
}

func (s *CatalogService) invalidateStats(ctx context.Context) {
	if err := s.cache.Delete(ctx, statsCacheKey); err != nil {
		s.log.Warn().Err(err).Msg("stats cache invalidation failed")
	}
}

// CreateCategory creates a category under the parent named by slug, if any.
func (s *CatalogService) CreateCategory(ctx context.Context, req dto.CategoryRequest) (*dto.CategoryNode, error) {
	category := &models.Category{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
	}
	if req.Parent != "" {
		parent, err := s.categories.GetBySlug(ctx, req.Parent)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewValidationError("parent", "Category not found.")
		}
		if err != nil {
			return nil, err
		}
		category.ParentID = &parent.ID
	}
	if category.Slug == "" && models.Slugify(category.Name) == "" {
		return nil, domain.NewValidationError("slug", "Could not derive a slug from the name.")
	}

	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}
	s.invalidateStats(ctx)

	node := dto.NewCategoryTree(nil).Node(*category)
	return &node, nil
}

// CreateProduct creates a product with its variants and media.
func (s *CatalogService) CreateProduct(ctx context.Context, req dto.ProductRequest) (*dto.ProductDetail, error) {
	product, err := s.buildProduct(ctx, req)
	if err != nil {
		return nil, err
	}
	if product.Slug == "" && models.Slugify(product.Name) == "" {
		return nil, domain.NewValidationError("slug", "Could not derive a slug from the name.")
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}
	s.invalidateStats(ctx)
	return s.reload(ctx, product.Slug)
}

// UpdateProduct replaces the product identified by slug with req. An empty
// slug in req keeps the current one.
func (s *CatalogService) UpdateProduct(ctx context.Context, slug string, req dto.ProductRequest) (*dto.ProductDetail, error) {
	existing, err := s.products.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	product, err := s.buildProduct(ctx, req)
	if err != nil {
		return nil, err
	}
	product.ID = existing.ID
	product.CreatedAt = existing.CreatedAt
	if product.Slug == "" {
		product.Slug = existing.Slug
	}

	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}
	s.invalidateStats(ctx)
	return s.reload(ctx, product.Slug)
}

// DeleteProduct deletes the product identified by slug.
func (s *CatalogService) DeleteProduct(ctx context.Context, slug string) error {
	if err := s.products.DeleteBySlug(ctx, slug); err != nil {
		return err
	}
	s.invalidateStats(ctx)
	return nil
}

func (s *CatalogService) reload(ctx context.Context, slug string) (*dto.ProductDetail, error) {
	product, err := s.products.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, product)
}

// buildProduct validates req and resolves its category.
func (s *CatalogService) buildProduct(ctx context.Context, req dto.ProductRequest) (*models.Product, error) {
	verr := &domain.ValidationError{}
	for i, v := range req.Variants {
		if v.Price.IsNegative() {
			verr.Add(fmt.Sprintf("variants[%d].price", i), "Ensure this value is greater than or equal to 0.")
		} else if v.Price.GreaterThan(maxVariantPrice) {
			verr.Add(fmt.Sprintf("variants[%d].price", i), "Ensure that there are no more than 10 digits in total.")
		}
	}

	product := req.Model()
	category, err := s.categories.GetBySlug(ctx, req.Category)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		verr.Add("category", "Category not found.")
	case err != nil:
		return nil, err
	default:
		product.CategoryID = category.ID
		product.Category = *category
	}

	if !verr.Empty() {
		return nil, verr
	}
	return product, nil
}
