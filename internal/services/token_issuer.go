package services

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"katalog/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	sessionAudience       = "session"
	passwordResetAudience = "password_reset"
	tokenIssuer           = "katalog"
)

// SessionClaims identify a logged-in user. ID is the token id used for
// revocation on logout.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// resetClaims bind a reset token to the state of the account it was issued
// for. Fingerprint changes as soon as the password changes or the user logs
// in, so a token works at most once.
type resetClaims struct {
	Fingerprint string `json:"fp"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies session and password-reset tokens with HS256.
type TokenIssuer struct {
	secret     []byte
	sessionTTL time.Duration
	resetTTL   time.Duration
	now        func() time.Time
}

// NewTokenIssuer creates a TokenIssuer.
func NewTokenIssuer(secret string, sessionTTL, resetTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
		resetTTL:   resetTTL,
		now:        time.Now,
	}
}

// SessionTTL is how long a session token stays valid.
func (t *TokenIssuer) SessionTTL() time.Duration {
	return t.sessionTTL
}

// PasswordResetTTL is how long a reset link stays valid.
func (t *TokenIssuer) PasswordResetTTL() time.Duration {
	return t.resetTTL
}

func (t *TokenIssuer) keyFunc(token *jwt.Token) (interface{}, error) {
	return t.secret, nil
}

func (t *TokenIssuer) parserOptions(audience string) []jwt.ParserOption {
	return []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	}
}

// IssueSession creates a session token for user.
func (t *TokenIssuer) IssueSession(user *models.User) (string, *SessionClaims, error) {
	now := t.now()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{sessionAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.sessionTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, claims, nil
}

// ParseSession verifies a session token and returns its claims.
func (t *TokenIssuer) ParseSession(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if _, err := jwt.ParseWithClaims(token, claims, t.keyFunc, t.parserOptions(sessionAudience)...); err != nil {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, errors.New("invalid session token: missing subject or id")
	}
	return claims, nil
}

// IssuePasswordReset creates a reset token for user.
func (t *TokenIssuer) IssuePasswordReset(user *models.User) (string, error) {
	now := t.now()
	claims := &resetClaims{
		Fingerprint: accountFingerprint(user),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{passwordResetAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.resetTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign reset token: %w", err)
	}
	return signed, nil
}

// PasswordResetSubject verifies the signature and expiry of a reset token and
// returns the user id it was issued for. The caller must still check the
// token against the user with VerifyPasswordReset.
func (t *TokenIssuer) PasswordResetSubject(token string) (string, error) {
	claims := &resetClaims{}
	if _, err := jwt.ParseWithClaims(token, claims, t.keyFunc, t.parserOptions(passwordResetAudience)...); err != nil {
		return "", fmt.Errorf("invalid reset token: %w", err)
	}
	if claims.Subject == "" {
		return "", errors.New("invalid reset token: missing subject")
	}
	return claims.Subject, nil
}

// VerifyPasswordReset reports whether token was issued for user in its
// current state.
func (t *TokenIssuer) VerifyPasswordReset(token string, user *models.User) bool {
	claims := &resetClaims{}
	if _, err := jwt.ParseWithClaims(token, claims, t.keyFunc, t.parserOptions(passwordResetAudience)...); err != nil {
		return false
	}
	if claims.Subject != user.ID {
		return false
	}
	want := accountFingerprint(user)
	return subtle.ConstantTimeCompare([]byte(claims.Fingerprint), []byte(want)) == 1
}

func accountFingerprint(user *models.User) string {
	h := sha256.New()
	h.Write([]byte(user.ID))
	h.Write([]byte{0})
	h.Write([]byte(user.Password))
	h.Write([]byte{0})
	if user.LastLogin != nil {
		h.Write([]byte(strconv.FormatInt(user.LastLogin.Unix(), 10)))
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}
