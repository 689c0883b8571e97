package handlers

import (
	"time"

	"katalog/internal/dto"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler serves the liveness check.
type HealthHandler struct {
	version string
	debug   bool
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(version string, debug bool) *HealthHandler {
	return &HealthHandler{version: version, debug: debug}
}

// RegisterRoutes registers the health check route with the Fiber app.
func (h *HealthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/healthz/", h.HandleHealth)
}

// HandleHealth reports that the process is serving requests.
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(dto.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Unix(),
		Version:   h.version,
		Debug:     h.debug,
	})
}
