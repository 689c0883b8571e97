package handlers

import (
	"net/url"
	"strconv"
	"strings"

	"katalog/internal/domain"
	"katalog/internal/dto"
	"katalog/internal/repositories"
	"katalog/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// CatalogHandler handles the public catalog endpoints.
type CatalogHandler struct {
	service *services.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(service *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// RegisterRoutes registers the catalog routes with the Fiber app.
func (h *CatalogHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/categories/", h.HandleListCategories)
	router.Get("/products/", h.HandleListProducts)
	router.Get("/products/:slug/", h.HandleGetProduct)
	router.Get("/stats/", h.HandleStats)
}

// HandleListCategories lists categories with their subtrees.
func (h *CatalogHandler) HandleListCategories(c *fiber.Ctx) error {
	page, err := pageRequest(c)
	if err != nil {
		return err
	}
	filter := repositories.CategoryFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		Ordering: c.Query("ordering"),
	}

	nodes, total, err := h.service.ListCategories(c.UserContext(), filter, page)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewPage(nodes, total, page, requestURL(c)))
}

// HandleListProducts lists active products matching the query parameters.
func (h *CatalogHandler) HandleListProducts(c *fiber.Ctx) error {
	page, err := pageRequest(c)
	if err != nil {
		return err
	}
	filter, err := productFilter(c)
	if err != nil {
		return err
	}

	items, total, err := h.service.ListProducts(c.UserContext(), filter, page)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewPage(items, total, page, requestURL(c)))
}

// HandleGetProduct returns one active product by slug.
func (h *CatalogHandler) HandleGetProduct(c *fiber.Ctx) error {
	detail, err := h.service.GetProduct(c.UserContext(), c.Params("slug"))
	if err != nil {
		return err
	}
	return c.JSON(detail)
}

// HandleStats returns the catalog aggregates.
func (h *CatalogHandler) HandleStats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

func productFilter(c *fiber.Ctx) (repositories.ProductFilter, error) {
	filter := repositories.ProductFilter{
		Search:       strings.TrimSpace(c.Query("search")),
		CategorySlug: c.Query("category"),
		InStock:      strings.EqualFold(c.Query("in_stock"), "true"),
		Ordering:     c.Query("ordering"),
	}

	verr := &domain.ValidationError{}
	for _, bound := range []struct {
		name string
		dst  **decimal.Decimal
	}{
		{"min_price", &filter.MinPrice},
		{"max_price", &filter.MaxPrice},
	} {
		raw := strings.TrimSpace(c.Query(bound.name))
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			verr.Add(bound.name, "Enter a number.")
			continue
		}
		*bound.dst = &d
	}
	if !verr.Empty() {
		return filter, verr
	}
	return filter, nil
}

// pageRequest reads page and page_size. A page that is not a positive number
// does not exist; a bad page_size falls back to the default.
func pageRequest(c *fiber.Ctx) (dto.PageRequest, error) {
	req := dto.PageRequest{Page: 1}
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return req, domain.ErrInvalidPage
		}
		req.Page = n
	}
	if raw := c.Query("page_size"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			req.PageSize = n
		}
	}
	req.Normalize()
	return req, nil
}

func requestURL(c *fiber.Ctx) *url.URL {
	u, err := url.Parse(c.BaseURL() + c.OriginalURL())
	if err != nil {
		return nil
	}
	return u
}
