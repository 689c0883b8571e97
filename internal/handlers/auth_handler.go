package handlers

import (
	"time"

	"katalog/internal/dto"
	"katalog/internal/middleware"
	"katalog/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CSRFContextKey is where the csrf middleware stores the request's token.
const CSRFContextKey = "csrf"

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService  *services.AuthService
	validate     *Validator
	secureCookie bool
	csrf         fiber.Handler
}

// NewAuthHandler creates a new AuthHandler. secureCookie marks the session
// cookie Secure.
func NewAuthHandler(authService *services.AuthService, validate *Validator, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		validate:     validate,
		secureCookie: secureCookie,
	}
}

// WithCSRF mounts csrf on the token endpoint. Use it when the middleware is
// not already installed application-wide.
func (h *AuthHandler) WithCSRF(csrf fiber.Handler) *AuthHandler {
	h.csrf = csrf
	return h
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRequired := middleware.AuthRequired(h.authService)

	authRoutes.Get("/me/", authRequired, h.HandleMe)
	authRoutes.Post("/register/", h.HandleRegister)
	authRoutes.Post("/login/", h.HandleLogin)
	authRoutes.Post("/logout/", authRequired, h.HandleLogout)
	authRoutes.Post("/password/reset/", h.HandlePasswordReset)
	authRoutes.Post("/password/reset/confirm/", h.HandlePasswordResetConfirm)
	if h.csrf != nil {
		authRoutes.Get("/csrf/", h.csrf, h.HandleCSRF)
	} else {
		authRoutes.Get("/csrf/", h.HandleCSRF)
	}
}

// HandleMe returns the profile of the authenticated user.
func (h *AuthHandler) HandleMe(c *fiber.Ctx) error {
	return c.JSON(dto.NewUserProfile(middleware.CurrentUser(c)))
}

// HandleRegister creates a customer account and logs it in.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := h.validate.bind(c, &req); err != nil {
		return err
	}

	session, err := h.authService.Register(c.UserContext(), req)
	if err != nil {
		return err
	}
	h.setSessionCookie(c, session)
	return c.Status(fiber.StatusCreated).JSON(dto.SessionResponse{
		UserProfile: dto.NewUserProfile(session.User),
		Token:       session.Token,
	})
}

// HandleLogin checks the credentials and opens a session.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := h.validate.bind(c, &req); err != nil {
		return err
	}

	session, err := h.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	h.setSessionCookie(c, session)
	return c.JSON(dto.SessionResponse{
		UserProfile: dto.NewUserProfile(session.User),
		Token:       session.Token,
	})
}

// HandleLogout revokes the current session.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	if err := h.authService.Logout(c.UserContext(), middleware.CurrentClaims(c)); err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.SendStatus(fiber.StatusNoContent)
}

// HandlePasswordReset emails a reset link. The response is the same whether
// or not the account exists.
func (h *AuthHandler) HandlePasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := h.validate.bind(c, &req); err != nil {
		return err
	}
	if err := h.authService.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: services.PasswordResetSentMessage})
}

// HandlePasswordResetConfirm sets a new password from a reset token.
func (h *AuthHandler) HandlePasswordResetConfirm(c *fiber.Ctx) error {
	var req dto.PasswordResetConfirmRequest
	if err := h.validate.bind(c, &req); err != nil {
		return err
	}
	if err := h.authService.ConfirmPasswordReset(c.UserContext(), req); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Password reset successful."})
}

// HandleCSRF returns the CSRF token for browser clients.
func (h *AuthHandler) HandleCSRF(c *fiber.Ctx) error {
	token, _ := c.Locals(CSRFContextKey).(string)
	return c.JSON(fiber.Map{"csrfToken": token})
}

func (h *AuthHandler) setSessionCookie(c *fiber.Ctx, session *services.Session) {
	cookie := &fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    session.Token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
	if session.Claims != nil && session.Claims.ExpiresAt != nil {
		cookie.Expires = session.Claims.ExpiresAt.Time
	}
	c.Cookie(cookie)
}
