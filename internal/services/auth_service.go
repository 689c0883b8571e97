package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"katalog/internal/domain"
	"katalog/internal/dto"
	"katalog/internal/models"
	"katalog/internal/repositories"
	"katalog/pkg/rabbitmq"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// PasswordResetSentMessage is returned for every reset request, whether or
// not the email belongs to an account.
const PasswordResetSentMessage = "Password reset email sent."

// AuthSettings configures outgoing reset emails and password hashing.
type AuthSettings struct {
	From        string
	FrontendURL string
	BcryptCost  int
}

// Session is an authenticated user together with its signed token.
type Session struct {
	User   *models.User
	Token  string
	Claims *SessionClaims
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	users    repositories.UserRepository
	tokens   repositories.TokenRepository
	issuer   *TokenIssuer
	mailer   Mailer
	policy   PasswordPolicy
	settings AuthSettings
	log      zerolog.Logger
	now      func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(users repositories.UserRepository, tokens repositories.TokenRepository, issuer *TokenIssuer, mailer Mailer, settings AuthSettings, log zerolog.Logger) *AuthService {
	if settings.BcryptCost == 0 {
		settings.BcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		users:    users,
		tokens:   tokens,
		issuer:   issuer,
		mailer:   mailer,
		policy:   DefaultPasswordPolicy,
		settings: settings,
		log:      log.With().Str("component", "auth").Logger(),
		now:      time.Now,
	}
}

// dummyHash is compared against when the account does not exist so that
// unknown emails take as long as wrong passwords.
var dummyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("katalog-dummy-password"), bcrypt.DefaultCost)
	return h
})

func (s *AuthService) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.settings.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func (s *AuthService) checkPassword(verr *domain.ValidationError, field, password, confirm string, attrs ...string) {
	if password != confirm {
		verr.Add(domain.NonFieldErrors, "Passwords don't match.")
		return
	}
	for _, msg := range s.policy.Check(password, attrs...) {
		verr.Add(field, msg)
	}
}

// Register creates a customer account and opens a session for it.
func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	verr := &domain.ValidationError{}
	s.checkPassword(verr, "password", req.Password, req.PasswordConfirm,
		"email", email,
		"username", req.Username,
		"first name", req.FirstName,
		"last name", req.LastName,
	)
	if !verr.Empty() {
		return nil, verr
	}

	hashed, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:     email,
		Username:  strings.TrimSpace(req.Username),
		Password:  hashed,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Roles:     models.Roles{models.RoleCustomer},
		IsActive:  true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", user.ID).Msg("user registered")
	return s.openSession(ctx, user)
}

// Login checks the credentials and opens a session. Unknown emails and wrong
// passwords are indistinguishable; a disabled account is only reported once
// the password has been verified.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, domain.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, domain.ErrInactiveAccount
	}
	return s.openSession(ctx, user)
}

func (s *AuthService) openSession(ctx context.Context, user *models.User) (*Session, error) {
	now := s.now()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLogin = &now

	token, claims, err := s.issuer.IssueSession(user)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token, Claims: claims}, nil
}

// Authenticate resolves a session token to its active user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, *SessionClaims, error) {
	claims, err := s.issuer.ParseSession(token)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	revoked, err := s.tokens.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, nil, err
	}
	if revoked {
		return nil, nil, fmt.Errorf("%w: token revoked", domain.ErrUnauthorized)
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: unknown user", domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, domain.ErrInactiveAccount)
	}
	return user, claims, nil
}

// Logout revokes the session token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, claims *SessionClaims) error {
	if claims == nil {
		return nil
	}
	expires := s.now().Add(s.issuer.SessionTTL())
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	if err := s.tokens.Revoke(ctx, &models.RevokedToken{
		JTI:       claims.ID,
		UserID:    claims.Subject,
		ExpiresAt: expires,
	}); err != nil {
		return err
	}

	if n, err := s.tokens.PurgeExpired(ctx, s.now()); err != nil {
		s.log.Warn().Err(err).Msg("failed to purge expired revocations")
	} else if n > 0 {
		s.log.Debug().Int64("purged", n).Msg("expired revocations purged")
	}
	return nil
}

// RequestPasswordReset emails a reset link when email belongs to an active
// account. The outcome is never revealed to the caller.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !user.IsActive {
		return nil
	}

	token, err := s.issuer.IssuePasswordReset(user)
	if err != nil {
		return err
	}
	body, err := renderPasswordResetEmail(passwordResetEmail{
		Username: user.Username,
		ResetURL: strings.TrimRight(s.settings.FrontendURL, "/") + "/reset-password/" + token,
		Expiry:   s.issuer.PasswordResetTTL(),
	})
	if err != nil {
		return err
	}

	err = s.mailer.Send(ctx, rabbitmq.MailMessage{
		From:    s.settings.From,
		To:      []string{user.Email},
		Subject: "Password reset",
		Body:    body,
	})
	if err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("failed to send password reset email")
		return nil
	}
	s.log.Info().Str("user_id", user.ID).Msg("password reset email sent")
	return nil
}

// ConfirmPasswordReset sets a new password using a reset token. Every token
// failure is reported as domain.ErrInvalidResetToken.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, req dto.PasswordResetConfirmRequest) error {
	verr := &domain.ValidationError{}
	s.checkPassword(verr, "password", req.Password, req.PasswordConfirm)
	if !verr.Empty() {
		return verr
	}

	userID, err := s.issuer.PasswordResetSubject(req.Token)
	if err != nil {
		return domain.ErrInvalidResetToken
	}
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrInvalidResetToken
	}
	if err != nil {
		return err
	}
	if !s.issuer.VerifyPasswordReset(req.Token, user) || !user.IsActive {
		return domain.ErrInvalidResetToken
	}

	for _, msg := range s.policy.Check(req.Password, "email", user.Email, "username", user.Username) {
		verr.Add("password", msg)
	}
	if !verr.Empty() {
		return verr
	}

	hashed, err := s.hash(req.Password)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hashed); err != nil {
		return err
	}
	s.log.Info().Str("user_id", user.ID).Msg("password reset")
	return nil
}

// CreateSuperuser creates an administrator. It reports created=false without
// error when the email is already registered.
func (s *AuthService) CreateSuperuser(ctx context.Context, email, username, password string) (*models.User, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}

	hashed, err := s.hash(password)
	if err != nil {
		return nil, false, err
	}
	user := &models.User{
		Email:       email,
		Username:    username,
		Password:    hashed,
		Roles:       models.Roles{models.RoleAdmin},
		IsActive:    true,
		IsStaff:     true,
		IsSuperuser: true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, false, err
	}
	s.log.Info().Str("user_id", user.ID).Msg("superuser created")
	return user, true, nil
}

// AddRole grants role to the user. Granting a held role changes nothing.
func (s *AuthService) AddRole(ctx context.Context, userID string, role models.Role) (*models.User, error) {
	return s.mutateRoles(ctx, userID, role, (*models.User).AddRole)
}

// RemoveRole revokes role from the user. Revoking an absent role changes nothing.
func (s *AuthService) RemoveRole(ctx context.Context, userID string, role models.Role) (*models.User, error) {
	return s.mutateRoles(ctx, userID, role, (*models.User).RemoveRole)
}

func (s *AuthService) mutateRoles(ctx context.Context, userID string, role models.Role, mutate func(*models.User, models.Role) bool) (*models.User, error) {
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !mutate(user, role) {
		return user, nil
	}
	if err := s.users.UpdateRoles(ctx, user.ID, user.Roles); err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", user.ID).Strs("roles", rolesStrings(user.Roles)).Msg("roles updated")
	return user, nil
}

func rolesStrings(roles models.Roles) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}
