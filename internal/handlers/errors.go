package handlers

import (
	"errors"

	"katalog/internal/domain"
	"katalog/internal/dto"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// Messages shared by several endpoints.
const (
	msgValidation   = "Validation failed."
	msgInvalidPage  = "Invalid page."
	msgNotFound     = "Not found."
	msgInvalidToken = "Invalid token."
	msgInternal     = "Internal server error."
)

// errorResponse maps err to a status code and body.
func errorResponse(err error) (int, dto.ErrorResponse) {
	var (
		verr     *domain.ValidationError
		dupErr   *domain.DuplicateError
		fiberErr *fiber.Error
	)
	switch {
	case errors.As(err, &verr):
		return fiber.StatusBadRequest, dto.ErrorResponse{Message: msgValidation, Errors: verr.Fields}
	case errors.As(err, &dupErr):
		return fiber.StatusBadRequest, dto.ErrorResponse{
			Message: msgValidation,
			Errors:  map[string][]string{dupErr.Field: {"A record with this " + dupErr.Field + " already exists."}},
		}
	case errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusBadRequest, dto.ErrorResponse{Message: "A record with these values already exists."}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return fiber.StatusBadRequest, dto.ErrorResponse{
			Message: msgValidation,
			Errors:  map[string][]string{domain.NonFieldErrors: {"Invalid email or password."}},
		}
	case errors.Is(err, domain.ErrInactiveAccount):
		return fiber.StatusBadRequest, dto.ErrorResponse{
			Message: msgValidation,
			Errors:  map[string][]string{domain.NonFieldErrors: {"User account is disabled."}},
		}
	case errors.Is(err, domain.ErrInvalidResetToken):
		return fiber.StatusBadRequest, dto.ErrorResponse{
			Message: msgInvalidToken,
			Errors:  map[string][]string{"token": {msgInvalidToken}},
		}
	case errors.Is(err, domain.ErrInvalidRole):
		return fiber.StatusBadRequest, dto.ErrorResponse{
			Message: msgValidation,
			Errors:  map[string][]string{"role": {"Invalid role."}},
		}
	case errors.Is(err, domain.ErrInvalidPage):
		return fiber.StatusNotFound, dto.ErrorResponse{Message: msgInvalidPage}
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, dto.ErrorResponse{Message: msgNotFound}
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, dto.ErrorResponse{Message: "Authentication credentials were not provided or are invalid."}
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, dto.ErrorResponse{Message: "You do not have permission to perform this action."}
	case errors.As(err, &fiberErr):
		return fiberErr.Code, dto.ErrorResponse{Message: fiberErr.Message}
	default:
		return fiber.StatusInternalServerError, dto.ErrorResponse{Message: msgInternal}
	}
}

// ErrorHandler renders every error returned by a handler as a JSON
// dto.ErrorResponse. Server faults are logged; their details never reach
// the client.
func ErrorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, body := errorResponse(err)
		if status >= fiber.StatusInternalServerError {
			log.Error().Err(err).
				Str("method", c.Method()).
				Str("path", c.Path()).
				Msg("request failed")
		}
		return c.Status(status).JSON(body)
	}
}
