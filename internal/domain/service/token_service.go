package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token kinds embedded in the "type" claim.
const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
)

// Claims defines the custom claims carried by issued tokens.
type Claims struct {
	UserID uuid.UUID `json:"-"`
	Kind   string    `json:"type"`
	jwt.RegisteredClaims
}

// TokenService defines the interface for issuing and validating signed,
// time-bound tokens. Implementations own the signing key for the lifetime
// of the process; the key is never mutated after construction.
type TokenService interface {
	// Issue creates a signed token for the given user with an explicit ttl.
	// A non-positive ttl is rejected.
	Issue(userID uuid.UUID, ttl time.Duration, kind string) (string, error)

	// GenerateTokens creates an access/refresh token pair using the
	// configured default TTLs.
	GenerateTokens(userID uuid.UUID) (accessToken string, refreshToken string, err error)

	// ValidateToken parses and verifies a token string. Expired, tampered
	// and malformed tokens fail with distinct domain errors.
	ValidateToken(tokenString string) (*Claims, error)

	// RefreshTokenDuration returns the configured refresh token lifetime.
	RefreshTokenDuration() time.Duration
}
