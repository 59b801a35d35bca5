package entity

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken represents a long-lived, authorized user session.
// It is used to obtain a new access token after the old one expires,
// without requiring credentials again.
type RefreshToken struct {
	ID        uuid.UUID // The unique ID for this token record.
	UserID    uuid.UUID // Links this session to the user it belongs to.
	TokenHash string    // SHA-256 hash of the raw refresh token. The raw value is never stored.
	ExpiresAt time.Time // When this refresh token becomes invalid.
	CreatedAt time.Time // When this session was created.
}
