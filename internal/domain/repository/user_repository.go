// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers
// and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"fritime/internal/domain/entity"

	"github.com/google/uuid"
)

// Domain-specific persistence errors. The application layer matches on these
// with errors.Is instead of depending on database-specific errors.
var (
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when an insert would violate the email
	// uniqueness constraint. The storage layer must detect this atomically;
	// callers may pre-check but cannot rely on the pre-check alone.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrDuplicateFriend is returned when the same friend link is added twice.
	ErrDuplicateFriend = errors.New("friend already added")
)

// UserRepository defines the standard operations for user persistence.
type UserRepository interface {
	// FindByID retrieves a single user by their unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// FindByEmail retrieves a single user by their login email.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// Create persists a new user. Returns ErrDuplicateEmail when the email
	// is already taken, enforced by the storage layer's unique index.
	Create(ctx context.Context, user *entity.User) error

	// SetActive flips the active flag on a user account.
	SetActive(ctx context.Context, id uuid.UUID, active bool) error

	// AddFriend links another user to the given user.
	AddFriend(ctx context.Context, friend *entity.Friend) error

	// ListFriends returns all friend links owned by the given user.
	ListFriends(ctx context.Context, userID uuid.UUID) ([]*entity.Friend, error)
}
