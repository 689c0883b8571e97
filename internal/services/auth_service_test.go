package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"katalog/internal/domain"
	"katalog/internal/dto"
	"katalog/internal/models"
	"katalog/internal/services"
	"katalog/pkg/rabbitmq"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test_jwt_secret"

type authFixture struct {
	users   *MockUserRepository
	tokens  *MockTokenRepository
	mailer  *MockMailer
	issuer  *services.TokenIssuer
	service *services.AuthService
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		users:  new(MockUserRepository),
		tokens: new(MockTokenRepository),
		mailer: new(MockMailer),
		issuer: services.NewTokenIssuer(testJWTSecret, time.Hour, time.Hour),
	}
	f.service = services.NewAuthService(f.users, f.tokens, f.issuer, f.mailer, services.AuthSettings{
		From:        "noreply@katalog.test",
		FrontendURL: "http://shop.test/",
		BcryptCost:  bcrypt.MinCost,
	}, zerolog.Nop())
	return f
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func activeUser(t *testing.T) *models.User {
	return &models.User{
		ID:       "user-123",
		Email:    "ana@example.com",
		Username: "ana",
		Password: hashed(t, "Tr0ub4dor&3"),
		Roles:    models.Roles{models.RoleCustomer},
		IsActive: true,
	}
}

func TestAuthService_Register(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	f.users.On("Create", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.Email == "ana@example.com" && u.Username == "ana" &&
			len(u.Roles) == 1 && u.Roles[0] == models.RoleCustomer &&
			bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("Tr0ub4dor&3")) == nil
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.User).ID = "user-123"
	}).Return(nil).Once()
	f.users.On("TouchLastLogin", ctx, "user-123", mock.AnythingOfType("time.Time")).Return(nil).Once()

	session, err := f.service.Register(ctx, dto.RegisterRequest{
		Email:           " Ana@Example.com ",
		Username:        "ana",
		Password:        "Tr0ub4dor&3",
		PasswordConfirm: "Tr0ub4dor&3",
	})
	require.NoError(t, err)
	assert.Equal(t, models.Roles{models.RoleCustomer}, session.User.Roles)
	assert.NotNil(t, session.User.LastLogin)

	claims, err := f.issuer.ParseSession(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.Subject)
	f.users.AssertExpectations(t)
}

func TestAuthService_Register_Rejected(t *testing.T) {
	tests := []struct {
		name  string
		req   dto.RegisterRequest
		field string
	}{
		{
			name:  "mismatch",
			req:   dto.RegisterRequest{Email: "ana@example.com", Username: "ana", Password: "Tr0ub4dor&3", PasswordConfirm: "Tr0ub4dor&4"},
			field: domain.NonFieldErrors,
		},
		{
			name:  "too short",
			req:   dto.RegisterRequest{Email: "ana@example.com", Username: "ana", Password: "x7!", PasswordConfirm: "x7!"},
			field: "password",
		},
		{
			name:  "numeric",
			req:   dto.RegisterRequest{Email: "ana@example.com", Username: "ana", Password: "9081726354", PasswordConfirm: "9081726354"},
			field: "password",
		},
		{
			name:  "similar to username",
			req:   dto.RegisterRequest{Email: "ana@example.com", Username: "margarita", Password: "margarita1", PasswordConfirm: "margarita1"},
			field: "password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture()
			_, err := f.service.Register(context.Background(), tt.req)

			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
			f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	dup := &domain.DuplicateError{Field: "email", Value: "ana@example.com"}
	f.users.On("Create", ctx, mock.Anything).Return(dup).Once()

	_, err := f.service.Register(ctx, dto.RegisterRequest{
		Email: "ana@example.com", Username: "ana", Password: "Tr0ub4dor&3", PasswordConfirm: "Tr0ub4dor&3",
	})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	f.users.AssertExpectations(t)
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := newAuthFixture()
		user := activeUser(t)
		f.users.On("GetByEmail", ctx, "ana@example.com").Return(user, nil).Once()
		f.users.On("TouchLastLogin", ctx, user.ID, mock.AnythingOfType("time.Time")).Return(nil).Once()

		session, err := f.service.Login(ctx, "ANA@example.com", "Tr0ub4dor&3")
		require.NoError(t, err)
		assert.NotEmpty(t, session.Token)
		assert.Equal(t, user.ID, session.Claims.Subject)
		f.users.AssertExpectations(t)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("GetByEmail", ctx, "ana@example.com").Return(activeUser(t), nil).Once()

		_, err := f.service.Login(ctx, "ana@example.com", "wrongpassword")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("GetByEmail", ctx, "ghost@example.com").Return(nil, domain.ErrNotFound).Once()

		_, err := f.service.Login(ctx, "ghost@example.com", "Tr0ub4dor&3")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("inactive", func(t *testing.T) {
		f := newAuthFixture()
		user := activeUser(t)
		user.IsActive = false
		f.users.On("GetByEmail", ctx, "ana@example.com").Return(user, nil).Twice()

		_, err := f.service.Login(ctx, "ana@example.com", "Tr0ub4dor&3")
		assert.ErrorIs(t, err, domain.ErrInactiveAccount)

		_, err = f.service.Login(ctx, "ana@example.com", "wrongpassword")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
		f.users.AssertNotCalled(t, "TouchLastLogin", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAuthService_AuthenticateAndLogout(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	user := activeUser(t)

	token, claims, err := f.issuer.IssueSession(user)
	require.NoError(t, err)

	f.tokens.On("IsRevoked", ctx, claims.ID).Return(false, nil).Once()
	f.users.On("GetByID", ctx, user.ID).Return(user, nil).Once()

	got, gotClaims, err := f.service.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, claims.ID, gotClaims.ID)

	f.tokens.On("Revoke", ctx, mock.MatchedBy(func(r *models.RevokedToken) bool {
		return r.JTI == claims.ID && r.UserID == user.ID && r.ExpiresAt.Equal(claims.ExpiresAt.Time)
	})).Return(nil).Once()
	f.tokens.On("PurgeExpired", ctx, mock.AnythingOfType("time.Time")).Return(int64(2), nil).Once()
	require.NoError(t, f.service.Logout(ctx, gotClaims))

	f.tokens.On("IsRevoked", ctx, claims.ID).Return(true, nil).Once()
	_, _, err = f.service.Authenticate(ctx, token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, _, err = f.service.Authenticate(ctx, "not-a-token")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	f.users.AssertExpectations(t)
	f.tokens.AssertExpectations(t)
}

func resetTokenFrom(t *testing.T, body string) string {
	t.Helper()
	const marker = "http://shop.test/reset-password/"
	i := strings.Index(body, marker)
	require.GreaterOrEqual(t, i, 0, "reset link missing from %q", body)
	rest := body[i+len(marker):]
	if j := strings.IndexAny(rest, " \n"); j >= 0 {
		rest = rest[:j]
	}
	return rest
}

func TestAuthService_PasswordReset(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	user := activeUser(t)

	var sent rabbitmq.MailMessage
	f.users.On("GetByEmail", ctx, "ana@example.com").Return(user, nil).Once()
	f.mailer.On("Send", ctx, mock.AnythingOfType("rabbitmq.MailMessage")).Run(func(args mock.Arguments) {
		sent = args.Get(1).(rabbitmq.MailMessage)
	}).Return(nil).Once()

	require.NoError(t, f.service.RequestPasswordReset(ctx, "ana@example.com"))
	assert.Equal(t, []string{"ana@example.com"}, sent.To)
	assert.Equal(t, "noreply@katalog.test", sent.From)
	token := resetTokenFrom(t, sent.Body)

	f.users.On("GetByID", ctx, user.ID).Return(user, nil)
	f.users.On("UpdatePassword", ctx, user.ID, mock.AnythingOfType("string")).Run(func(args mock.Arguments) {
		user.Password = args.String(2)
	}).Return(nil).Once()

	err := f.service.ConfirmPasswordReset(ctx, dto.PasswordResetConfirmRequest{
		Token: token, Password: "c0rrect-h0rse", PasswordConfirm: "c0rrect-h0rse",
	})
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("c0rrect-h0rse")))

	// The password changed, so the same link no longer works.
	err = f.service.ConfirmPasswordReset(ctx, dto.PasswordResetConfirmRequest{
		Token: token, Password: "an0ther-h0rse", PasswordConfirm: "an0ther-h0rse",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidResetToken)
	f.users.AssertExpectations(t)
	f.mailer.AssertExpectations(t)
}

func TestAuthService_RequestPasswordReset_Generic(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown email", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("GetByEmail", ctx, "ghost@example.com").Return(nil, domain.ErrNotFound).Once()

		assert.NoError(t, f.service.RequestPasswordReset(ctx, "ghost@example.com"))
		f.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("mailer failure", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("GetByEmail", ctx, "ana@example.com").Return(activeUser(t), nil).Once()
		f.mailer.On("Send", ctx, mock.Anything).Return(errors.New("broker down")).Once()

		assert.NoError(t, f.service.RequestPasswordReset(ctx, "ana@example.com"))
		f.mailer.AssertExpectations(t)
	})

	t.Run("inactive account", func(t *testing.T) {
		f := newAuthFixture()
		user := activeUser(t)
		user.IsActive = false
		f.users.On("GetByEmail", ctx, "ana@example.com").Return(user, nil).Once()

		assert.NoError(t, f.service.RequestPasswordReset(ctx, "ana@example.com"))
		f.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})
}

func TestAuthService_ConfirmPasswordReset_InvalidToken(t *testing.T) {
	ctx := context.Background()
	user := activeUser(t)

	other := services.NewTokenIssuer("another-secret", time.Hour, time.Hour)
	foreign, err := other.IssuePasswordReset(user)
	require.NoError(t, err)

	f := newAuthFixture()
	session, _, err := f.issuer.IssueSession(user)
	require.NoError(t, err)
	valid, err := f.issuer.IssuePasswordReset(user)
	require.NoError(t, err)

	f.users.On("GetByID", ctx, user.ID).Return(nil, domain.ErrNotFound)

	for name, token := range map[string]string{
		"garbage":       "not-a-token",
		"wrong secret":  foreign,
		"session token": session,
		"deleted user":  valid,
	} {
		t.Run(name, func(t *testing.T) {
			err := f.service.ConfirmPasswordReset(ctx, dto.PasswordResetConfirmRequest{
				Token: token, Password: "c0rrect-h0rse", PasswordConfirm: "c0rrect-h0rse",
			})
			assert.ErrorIs(t, err, domain.ErrInvalidResetToken)
		})
	}
	f.users.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_ConfirmPasswordReset_Mismatch(t *testing.T) {
	f := newAuthFixture()

	err := f.service.ConfirmPasswordReset(context.Background(), dto.PasswordResetConfirmRequest{
		Token: "whatever", Password: "c0rrect-h0rse", PasswordConfirm: "c0rrect-h0rsf",
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"Passwords don't match."}, verr.Fields[domain.NonFieldErrors])
}

func TestAuthService_Roles(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	user := activeUser(t)

	f.users.On("GetByID", ctx, user.ID).Return(user, nil)
	f.users.On("UpdateRoles", ctx, user.ID, models.Roles{models.RoleCustomer, models.RoleSeller}).Return(nil).Once()
	f.users.On("UpdateRoles", ctx, user.ID, models.Roles{models.RoleSeller}).Return(nil).Once()

	got, err := f.service.AddRole(ctx, user.ID, models.RoleSeller)
	require.NoError(t, err)
	assert.True(t, got.IsSeller())

	// Already held: no write.
	_, err = f.service.AddRole(ctx, user.ID, models.RoleSeller)
	require.NoError(t, err)

	got, err = f.service.RemoveRole(ctx, user.ID, models.RoleCustomer)
	require.NoError(t, err)
	assert.False(t, got.IsCustomer())

	// Already absent: no write.
	_, err = f.service.RemoveRole(ctx, user.ID, models.RoleCustomer)
	require.NoError(t, err)

	_, err = f.service.AddRole(ctx, user.ID, models.Role("owner"))
	assert.ErrorIs(t, err, domain.ErrInvalidRole)
	f.users.AssertExpectations(t)
}

func TestAuthService_CreateSuperuser(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	f.users.On("GetByEmail", ctx, "admin@example.com").Return(nil, domain.ErrNotFound).Once()
	f.users.On("Create", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.IsStaff && u.IsSuperuser && u.IsActive && u.IsAdmin() && len(u.Roles) == 1
	})).Return(nil).Once()

	user, created, err := f.service.CreateSuperuser(ctx, "admin@example.com", "admin", "admin123")
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, user.IsAdmin())

	f.users.On("GetByEmail", ctx, "admin@example.com").Return(user, nil).Once()
	_, created, err = f.service.CreateSuperuser(ctx, "admin@example.com", "admin", "admin123")
	require.NoError(t, err)
	assert.False(t, created)
	f.users.AssertExpectations(t)
}
