package repository

import (
	"context"
	"errors"

	"fritime/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrTokenNotFound is returned when a refresh token is not found.
var ErrTokenNotFound = errors.New("refresh token not found")

// RefreshTokenRepository defines the operations for refresh token persistence.
type RefreshTokenRepository interface {
	// Create persists a new refresh token, representing a user session.
	Create(ctx context.Context, token *entity.RefreshToken) error

	// FindByHash retrieves a refresh token record by its stored hash.
	FindByHash(ctx context.Context, hash string) (*entity.RefreshToken, error)

	// DeleteByHash deletes a refresh token by its hash, ending a session.
	DeleteByHash(ctx context.Context, hash string) error

	// DeleteByUser deletes all refresh tokens belonging to a user.
	DeleteByUser(ctx context.Context, userID uuid.UUID) error

	// DeleteExpired removes tokens whose expiry has passed and reports how
	// many were deleted.
	DeleteExpired(ctx context.Context) (int64, error)
}
