package repositories

import (
	"context"
	"time"

	"katalog/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateRoles(ctx context.Context, id string, roles models.Roles) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

// TokenRepository records session tokens revoked before they expire.
type TokenRepository interface {
	Revoke(ctx context.Context, token *models.RevokedToken) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	// PurgeExpired deletes entries whose token would be rejected anyway.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
