package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"katalog/internal/domain"
	"katalog/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create creates a new user in the database. A taken email or username is
// reported as *domain.DuplicateError.
func (r *GORMUserRepository) Create(ctx context.Context, user *models.User) error {
	err := translate("failed to create user", r.db.WithContext(ctx).Create(user).Error)
	if !errors.Is(err, domain.ErrDuplicate) {
		return err
	}
	db := r.db.WithContext(ctx)
	if exists(db, &models.User{}, "email = ?", user.Email) {
		return &domain.DuplicateError{Field: "email", Value: user.Email}
	}
	if exists(db, &models.User{}, "username = ?", user.Username) {
		return &domain.DuplicateError{Field: "username", Value: user.Username}
	}
	return err
}

// GetByUsername retrieves a user by their username from the database.
func (r *GORMUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "username = ?", username).Error; err != nil {
		return nil, translate(fmt.Sprintf("failed to get user by username %s", username), err)
	}
	return &user, nil
}

// GetByEmail retrieves a user by their email from the database.
func (r *GORMUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, translate(fmt.Sprintf("failed to get user by email %s", email), err)
	}
	return &user, nil
}

// GetByID retrieves a user by their ID from the database.
func (r *GORMUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(fmt.Sprintf("failed to get user by ID %s", id), err)
	}
	return &user, nil
}

// UpdatePassword stores a new password hash.
func (r *GORMUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"password": passwordHash})
}

// UpdateRoles replaces the stored role list.
func (r *GORMUserRepository) UpdateRoles(ctx context.Context, id string, roles models.Roles) error {
	if roles == nil {
		roles = models.Roles{}
	}
	res := r.db.WithContext(ctx).Model(&models.User{ID: id}).Select("Roles", "UpdatedAt").Updates(&models.User{Roles: roles})
	if res.Error != nil {
		return fmt.Errorf("failed to update roles of user %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %s not found for update: %w", id, domain.ErrNotFound)
	}
	return nil
}

// TouchLastLogin records a successful login.
func (r *GORMUserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"last_login": at})
}

func (r *GORMUserRepository) updateColumns(ctx context.Context, id string, values map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return fmt.Errorf("failed to update user %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %s not found for update: %w", id, domain.ErrNotFound)
	}
	return nil
}

// GORMTokenRepository is a GORM implementation of TokenRepository.
type GORMTokenRepository struct {
	db *gorm.DB
}

// NewGORMTokenRepository creates a new instance of GORMTokenRepository.
func NewGORMTokenRepository(db *gorm.DB) *GORMTokenRepository {
	return &GORMTokenRepository{db: db}
}

// Revoke stores the token id. Revoking the same token twice is not an error.
func (r *GORMTokenRepository) Revoke(ctx context.Context, token *models.RevokedToken) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(token).Error
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether jti was revoked.
func (r *GORMTokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.RevokedToken{}).Where("jti = ?", jti).Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}

// PurgeExpired removes revocations of tokens that have expired by now.
func (r *GORMTokenRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&models.RevokedToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge revoked tokens: %w", res.Error)
	}
	return res.RowsAffected, nil
}
