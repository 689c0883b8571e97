package handlers

import (
	"katalog/internal/dto"
	"katalog/internal/middleware"
	"katalog/internal/models"
	"katalog/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler handles catalog writes and role management. Every route
// requires the admin role.
type AdminHandler struct {
	catalog  *services.CatalogService
	auth     *services.AuthService
	validate *Validator
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(catalog *services.CatalogService, auth *services.AuthService, validate *Validator) *AdminHandler {
	return &AdminHandler{
		catalog:  catalog,
		auth:     auth,
		validate: validate,
	}
}

// RegisterRoutes registers the admin routes with the Fiber app.
func (h *AdminHandler) RegisterRoutes(router fiber.Router) {
	admin := router.Group("/admin",
		middleware.AuthRequired(h.auth),
		middleware.RequireRole(models.RoleAdmin),
	)
	admin.Post("/categories/", h.HandleCreateCategory)
	admin.Post("/products/", h.HandleCreateProduct)
	admin.Put("/products/:slug/", h.HandleUpdateProduct)
	admin.Delete("/products/:slug/", h.HandleDeleteProduct)
	admin.Post("/users/:id/roles/", h.HandleAddRole)
	admin.Delete("/users/:id/roles/:role/", h.HandleRemoveRole)
}

// HandleCreateCategory creates a category.
func (h *AdminHandler) HandleCreateCategory(c *fiber.Ctx) error {
	var req dto.CategoryRequest
	if err := h.validate.bind(c, &req); err != nil {
		return err
	}
	node, err := h.catalog.CreateCategory(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(node)
}

// HandleCreateProduct creates a product with its variants and media.
func (h *AdminHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var req dto.ProductRequest
	if err := h.validate.bind(c, &req); err != nil {
		return err
	}
	detail, err := h.catalog.CreateProduct(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(detail)
}

// HandleUpdateProduct replaces a product, its variants and its media.
func (h *AdminHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var req dto.ProductRequest
	if err := h.validate.bind(c, &req); err != nil {
		return err
	}
	detail, err := h.catalog.UpdateProduct(c.UserContext(), c.Params("slug"), req)
	if err != nil {
		return err
	}
	return c.JSON(detail)
}

// HandleDeleteProduct deletes a product.
func (h *AdminHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.catalog.DeleteProduct(c.UserContext(), c.Params("slug")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleAddRole grants a role to a user.
func (h *AdminHandler) HandleAddRole(c *fiber.Ctx) error {
	var req dto.RoleRequest
	if err := h.validate.bind(c, &req); err != nil {
		return err
	}
	user, err := h.auth.AddRole(c.UserContext(), c.Params("id"), models.Role(req.Role))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserProfile(user))
}

// HandleRemoveRole revokes a role from a user.
func (h *AdminHandler) HandleRemoveRole(c *fiber.Ctx) error {
	user, err := h.auth.RemoveRole(c.UserContext(), c.Params("id"), models.Role(c.Params("role")))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserProfile(user))
}
