package middleware

import (
	"context"
	"strings"

	"katalog/internal/domain"
	"katalog/internal/models"
	"katalog/internal/services"

	"github.com/gofiber/fiber/v2"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "katalog_session"

const (
	localUser   = "user"
	localClaims = "claims"
)

// Authenticator resolves a session token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, *services.SessionClaims, error)
}

// AuthRequired is a Fiber middleware that requires a valid session token,
// taken from a "Bearer" Authorization header or from the session cookie.
func AuthRequired(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := sessionToken(c)
		if token == "" {
			return domain.ErrUnauthorized
		}

		user, claims, err := auth.Authenticate(c.UserContext(), token)
		if err != nil {
			return err
		}

		// Store the user in Fiber context for subsequent handlers
		c.Locals(localUser, user)
		c.Locals(localClaims, claims)
		return c.Next()
	}
}

func sessionToken(c *fiber.Ctx) string {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		// Expected format: "Bearer <token>"
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return c.Cookies(SessionCookie)
}

// RequireRole rejects authenticated users that do not hold role. It must run
// after AuthRequired.
func RequireRole(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return domain.ErrUnauthorized
		}
		if !user.HasRole(role) && !user.IsSuperuser {
			return domain.ErrForbidden
		}
		return c.Next()
	}
}

// CurrentUser returns the user stored by AuthRequired, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(localUser).(*models.User)
	return user
}

// CurrentClaims returns the session claims stored by AuthRequired, or nil.
func CurrentClaims(c *fiber.Ctx) *services.SessionClaims {
	claims, _ := c.Locals(localClaims).(*services.SessionClaims)
	return claims
}
