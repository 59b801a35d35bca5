// Package auth provides concrete implementations for authentication-related
// domain services.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"fritime/config"
	domainerrors "fritime/internal/domain/errors"
	"fritime/internal/domain/service"
)

// jwtService implements the TokenService interface using HS256-signed JWTs.
// The secrets are copied out of config at construction time and never change
// afterwards, so validation and issuance are safe to call concurrently
// without locking.
type jwtService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewJWTService is the constructor for jwtService. A missing signing secret
// is a configuration error; the service refuses to start without one.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	if cfg == nil || cfg.SecretKey.Access == "" || cfg.SecretKey.Refresh == "" {
		return nil, domainerrors.ErrSigningKeyMissing.WrapMessage("jwt secrets must be provided")
	}

	accessTTL := 15 * time.Minute
	refreshTTL := 7 * 24 * time.Hour
	if cfg.Auth != nil {
		if cfg.Auth.AccessTTL > 0 {
			accessTTL = cfg.Auth.AccessTTL
		}
		if cfg.Auth.RefreshTTL > 0 {
			refreshTTL = cfg.Auth.RefreshTTL
		}
	}

	return &jwtService{
		accessSecret:  []byte(cfg.SecretKey.Access),
		refreshSecret: []byte(cfg.SecretKey.Refresh),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}, nil
}

// Issue creates a signed token for the given user. The expiry is strictly
// after the issue time because the ttl must be positive.
func (s *jwtService) Issue(userID uuid.UUID, ttl time.Duration, kind string) (string, error) {
	if ttl <= 0 {
		return "", domainerrors.ErrInvalidArgument.WrapMessage("token ttl must be positive")
	}

	secret, err := s.secretFor(kind)
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := service.Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			// A unique jti keeps two tokens for the same user distinct even
			// when they are issued within the same second.
			ID: uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token")
	}

	return signed, nil
}

// GenerateTokens creates a new access/refresh token pair using the
// configured default TTLs.
func (s *jwtService) GenerateTokens(userID uuid.UUID) (string, string, error) {
	accessToken, err := s.Issue(userID, s.accessTTL, service.TokenKindAccess)
	if err != nil {
		return "", "", err
	}

	refreshToken, err := s.Issue(userID, s.refreshTTL, service.TokenKindRefresh)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

// ValidateToken parses a token string, checks the signature against the
// process-wide key for its kind, and validates the time claims. Expired,
// tampered and malformed tokens map to distinct domain errors so callers
// can tell "retry with a fresh login" from "reject as tampered".
func (s *jwtService) ValidateToken(tokenString string) (*service.Claims, error) {
	claims := &service.Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		// The keyfunc sees the decoded (not yet verified) claims, which is
		// enough to pick the signing key for this token kind.
		return s.secretFor(claims.Kind)
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		return nil, mapTokenError(err)
	}
	if !token.Valid {
		return nil, domainerrors.ErrTokenSignatureInvalid
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, domainerrors.ErrTokenMalformed.WrapMessage("subject is not a valid user id")
	}
	claims.UserID = userID

	return claims, nil
}

// RefreshTokenDuration returns the configured refresh token lifetime.
func (s *jwtService) RefreshTokenDuration() time.Duration {
	return s.refreshTTL
}

func (s *jwtService) secretFor(kind string) ([]byte, error) {
	switch kind {
	case service.TokenKindAccess:
		return s.accessSecret, nil
	case service.TokenKindRefresh:
		return s.refreshSecret, nil
	default:
		return nil, domainerrors.ErrInvalidArgument.WrapMessage("unknown token kind")
	}
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return domainerrors.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrSignatureInvalid):
		return domainerrors.ErrTokenSignatureInvalid
	case errors.Is(err, jwt.ErrTokenMalformed):
		return domainerrors.ErrTokenMalformed
	default:
		return domainerrors.ErrTokenMalformed.WrapMessage(err.Error())
	}
}
