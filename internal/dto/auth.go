package dto

import (
	"time"

	"katalog/internal/models"
)

// RegisterRequest is the body of a self-registration.
type RegisterRequest struct {
	Email           string `json:"email" validate:"required,email,max=255"`
	Username        string `json:"username" validate:"required,max=150"`
	Password        string `json:"password" validate:"required,password"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
	FirstName       string `json:"first_name" validate:"max=150"`
	LastName        string `json:"last_name" validate:"max=150"`
}

// LoginRequest is the body of a login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// PasswordResetRequest asks for a reset link.
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// PasswordResetConfirmRequest sets a new password with a reset token.
type PasswordResetConfirmRequest struct {
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required,password"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
}

// RoleRequest names a role to grant.
type RoleRequest struct {
	Role string `json:"role" validate:"required,oneof=customer seller admin"`
}

// UserProfile is the public shape of a user.
type UserProfile struct {
	ID         string       `json:"id"`
	Email      string       `json:"email"`
	Username   string       `json:"username"`
	FirstName  string       `json:"first_name"`
	LastName   string       `json:"last_name"`
	Roles      models.Roles `json:"roles"`
	IsActive   bool         `json:"is_active"`
	DateJoined time.Time    `json:"date_joined"`
}

// NewUserProfile projects u.
func NewUserProfile(u *models.User) UserProfile {
	roles := u.Roles
	if roles == nil {
		roles = models.Roles{}
	}
	return UserProfile{
		ID:         u.ID,
		Email:      u.Email,
		Username:   u.Username,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Roles:      roles,
		IsActive:   u.IsActive,
		DateJoined: u.DateJoined,
	}
}

// SessionResponse is returned by login and registration: the profile plus the
// session token for clients that do not keep cookies.
type SessionResponse struct {
	UserProfile
	Token string `json:"token"`
}

// MessageResponse carries a human readable outcome.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// HealthResponse is the body of the liveness check.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
	Version   string `json:"version"`
	Debug     bool   `json:"debug"`
}
