// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is the core entity in the system, representing a registered account.
// The email address doubles as the login name and is unique across the
// system; uniqueness is enforced by the storage layer, not just here.
type User struct {
	ID           uuid.UUID // The unique identifier for the user.
	Email        string    // The user's login identifier. Unique.
	Name         string    // The user's display name.
	PasswordHash string    // The bcrypt hash of the user's password. Never the plaintext.
	IsActive     bool      // Whether the account may log in.
	CreatedAt    time.Time // Timestamp of when this account was created.
	UpdatedAt    time.Time // Timestamp of the last modification.
}

// Friend links two users. The owning user chose a display name for the
// linked user when adding them.
type Friend struct {
	UserID    uuid.UUID // The user who owns this friend entry.
	FriendID  uuid.UUID // The user being referenced.
	Name      string    // Display name the owner chose for the friend.
	CreatedAt time.Time
}
