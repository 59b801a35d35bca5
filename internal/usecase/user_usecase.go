// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"github.com/google/uuid"

	"fritime/internal/domain/entity"
)

// --- Input DTOs ---

// RegisterInput defines the data required to register a new user.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// LoginInput defines the data required for a user to log in.
type LoginInput struct {
	Email    string
	Password string
}

// RefreshInput carries the refresh token presented for rotation.
type RefreshInput struct {
	RefreshToken string
}

// LogoutInput carries the refresh token whose session should end.
type LogoutInput struct {
	RefreshToken string
}

// AddFriendInput defines the data required to link a friend.
type AddFriendInput struct {
	UserID   uuid.UUID
	FriendID uuid.UUID
	Name     string
}

// --- Output DTOs ---

// RegisterOutput returns the newly created user's basic information.
type RegisterOutput struct {
	User *entity.User
}

// LoginOutput returns the generated tokens after a successful login.
type LoginOutput struct {
	AccessToken  string
	RefreshToken string
	User         *entity.User
}

// RefreshOutput returns the rotated token pair.
type RefreshOutput struct {
	AccessToken  string
	RefreshToken string
}

// GetUserOutput returns a user together with their friend links.
type GetUserOutput struct {
	User    *entity.User
	Friends []*entity.Friend
}

// UserUsecase defines the interface for user-related business operations.
// This is the contract the delivery layer depends on.
type UserUsecase interface {
	// Register creates a new account. A taken email fails with the
	// duplicate-user error.
	Register(ctx context.Context, input *RegisterInput) (*RegisterOutput, error)

	// Login verifies credentials and issues a token pair. Unknown email
	// and wrong password are indistinguishable to the caller.
	Login(ctx context.Context, input *LoginInput) (*LoginOutput, error)

	// Authorize validates an access token, confirms the subject is an
	// active account, and returns the authenticated user id. Failures carry
	// the specific error kind; the transport boundary is responsible for
	// collapsing them into a uniform response.
	Authorize(ctx context.Context, tokenString string) (uuid.UUID, error)

	// Refresh rotates a refresh token and issues a new pair.
	Refresh(ctx context.Context, input *RefreshInput) (*RefreshOutput, error)

	// Logout ends the session belonging to the given refresh token.
	Logout(ctx context.Context, input *LogoutInput) error

	// Deactivate disables an account and ends all of its sessions.
	Deactivate(ctx context.Context, userID uuid.UUID) error

	// GetUser returns a user's public data and friend links.
	GetUser(ctx context.Context, id uuid.UUID) (*GetUserOutput, error)

	// AddFriend links another user to the given user.
	AddFriend(ctx context.Context, input *AddFriendInput) error

	// ListFriends returns the friend links owned by the given user.
	ListFriends(ctx context.Context, userID uuid.UUID) ([]*entity.Friend, error)
}
