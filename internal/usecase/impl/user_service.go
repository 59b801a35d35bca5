// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"fritime/internal/domain/entity"
	domainerrors "fritime/internal/domain/errors"
	"fritime/internal/domain/repository"
	"fritime/internal/domain/service"
	"fritime/internal/infra/metrics"
	"fritime/internal/usecase"
)

// dummyPasswordHash is a valid bcrypt hash of a throwaway value. When a login
// names an unknown email, the password is still checked against this hash so
// the unknown-email and wrong-password paths take the same time.
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// userService implements the UserUsecase interface.
type userService struct {
	txManager repository.TransactionManager
	userRepo  repository.UserRepository
	tokenRepo repository.RefreshTokenRepository
	hasher    service.PasswordHasher
	tokenSvc  service.TokenService
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewUserService is the constructor for userService. It receives all
// dependencies as interfaces.
func NewUserService(
	txManager repository.TransactionManager,
	userRepo repository.UserRepository,
	tokenRepo repository.RefreshTokenRepository,
	hasher service.PasswordHasher,
	tokenSvc service.TokenService,
	m *metrics.Metrics,
	logger *slog.Logger,
) usecase.UserUsecase {
	return &userService{
		txManager: txManager,
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		hasher:    hasher,
		tokenSvc:  tokenSvc,
		metrics:   m,
		logger:    logger,
	}
}

// Register orchestrates the complete user registration process.
func (srv *userService) Register(ctx context.Context, input *usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	srv.logger.Info("Starting user registration", "email", input.Email)

	if input.Email == "" {
		return nil, srv.registerFailed(domainerrors.ErrValidationFailed.WrapMessage("email is required"))
	}
	if err := srv.hasher.ValidatePasswordStrength(input.Password); err != nil {
		return nil, srv.registerFailed(err)
	}

	hashedPassword, err := srv.hasher.Hash(ctx, input.Password)
	if err != nil {
		srv.logger.Error("Failed to hash password during registration", "error", err)

		return nil, srv.registerFailed(err)
	}

	var registeredUser *entity.User

	// The duplicate check and the insert run in one transaction; the
	// database's unique index on email stays the authoritative arbiter
	// when two registrations race.
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		_, err := userRepo.FindByEmail(ctx, input.Email)
		if err == nil {
			return domainerrors.ErrUserAlreadyExists.WrapMessage("user registration failed")
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			return errors.Wrap(err, "failed to look up email")
		}

		newUser := &entity.User{
			Name:         input.Name,
			Email:        input.Email,
			PasswordHash: hashedPassword,
			IsActive:     true,
		}

		if err := userRepo.Create(ctx, newUser); err != nil {
			if errors.Is(err, repository.ErrDuplicateEmail) {
				return domainerrors.ErrUserAlreadyExists.WrapMessage("user registration failed")
			}

			return errors.WithStack(err)
		}
		registeredUser = newUser

		return nil
	})

	if err != nil {
		srv.logger.Warn("User registration failed", "email", input.Email, "error", err.Error())

		return nil, srv.registerFailed(err)
	}

	srv.metrics.Registrations.WithLabelValues(metrics.OutcomeSuccess).Inc()
	srv.logger.Debug("User registered successfully", "userID", registeredUser.ID)

	return &usecase.RegisterOutput{User: registeredUser}, nil
}

// Login orchestrates the user login process. Unknown email and wrong
// password both surface ErrInvalidCredentials; the distinction is only
// visible in server logs.
func (srv *userService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.LoginOutput, error) {
	srv.logger.Debug("Starting user login", "email", input.Email)

	var loggedInUser *entity.User
	var accessToken, refreshTokenString string

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()
		tokenRepo := repoFactory.RefreshTokenRepo()

		user, err := userRepo.FindByEmail(ctx, input.Email)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				// Burn the same hashing cost as the known-email path.
				if _, checkErr := srv.hasher.Check(ctx, input.Password, dummyPasswordHash); checkErr != nil {
					srv.logger.Warn("Dummy password check failed", "error", checkErr)
				}

				return domainerrors.ErrInvalidCredentials.WrapMessage("login failed: unknown email")
			}

			return errors.Wrap(err, "failed to look up email")
		}

		ok, err := srv.hasher.Check(ctx, input.Password, user.PasswordHash)
		if err != nil {
			return errors.Wrap(err, "failed to check password")
		}
		if !ok {
			return domainerrors.ErrInvalidCredentials.WrapMessage("login failed: password mismatch")
		}

		if !user.IsActive {
			return domainerrors.ErrUserInactive.WrapMessage("login failed")
		}

		accessToken, refreshTokenString, err = srv.tokenSvc.GenerateTokens(user.ID)
		if err != nil {
			return errors.Wrap(err, "failed to generate tokens")
		}

		newRefreshToken := &entity.RefreshToken{
			UserID:    user.ID,
			TokenHash: hashToken(refreshTokenString),
			ExpiresAt: time.Now().Add(srv.tokenSvc.RefreshTokenDuration()),
		}
		if err := tokenRepo.Create(ctx, newRefreshToken); err != nil {
			return errors.WithStack(err)
		}
		loggedInUser = user

		return nil
	})

	if err != nil {
		srv.metrics.Logins.WithLabelValues(metrics.OutcomeFailure).Inc()
		srv.logger.Warn("Login failed", "email", input.Email, "error", err.Error())

		return nil, err
	}

	srv.metrics.Logins.WithLabelValues(metrics.OutcomeSuccess).Inc()
	srv.logger.Debug("User logged in successfully", "userID", loggedInUser.ID)

	return &usecase.LoginOutput{
		AccessToken:  accessToken,
		RefreshToken: refreshTokenString,
		User:         loggedInUser,
	}, nil
}

// Authorize validates an access token and returns the authenticated user id.
// The subject must still exist and be active; a token issued before an
// account was deactivated stops working immediately. The returned error keeps
// the specific failure kind for logging; callers at the transport boundary
// answer uniformly regardless of kind.
func (srv *userService) Authorize(ctx context.Context, tokenString string) (uuid.UUID, error) {
	claims, err := srv.tokenSvc.ValidateToken(tokenString)
	if err != nil {
		srv.metrics.TokenVerifications.WithLabelValues(metrics.OutcomeFailure).Inc()

		return uuid.Nil, err
	}
	if claims.Kind != service.TokenKindAccess {
		srv.metrics.TokenVerifications.WithLabelValues(metrics.OutcomeFailure).Inc()

		return uuid.Nil, domainerrors.ErrTokenMalformed.WrapMessage("token is not an access token")
	}

	user, err := srv.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		srv.metrics.TokenVerifications.WithLabelValues(metrics.OutcomeFailure).Inc()
		if errors.Is(err, repository.ErrUserNotFound) {
			return uuid.Nil, domainerrors.ErrUserNotFound.WrapMessage("token subject no longer exists")
		}

		return uuid.Nil, errors.Wrap(err, "failed to load token subject")
	}
	if !user.IsActive {
		srv.metrics.TokenVerifications.WithLabelValues(metrics.OutcomeFailure).Inc()

		return uuid.Nil, domainerrors.ErrUserInactive.WrapMessage("authorize rejected")
	}

	srv.metrics.TokenVerifications.WithLabelValues(metrics.OutcomeSuccess).Inc()

	return claims.UserID, nil
}

// Refresh rotates a refresh token: the presented token is validated,
// its stored record replaced, and a new pair issued.
func (srv *userService) Refresh(ctx context.Context, input *usecase.RefreshInput) (*usecase.RefreshOutput, error) {
	claims, err := srv.tokenSvc.ValidateToken(input.RefreshToken)
	if err != nil {
		return nil, domainerrors.ErrRefreshTokenInvalid.WrapMessage("refresh token rejected")
	}
	if claims.Kind != service.TokenKindRefresh {
		return nil, domainerrors.ErrRefreshTokenInvalid.WrapMessage("not a refresh token")
	}

	oldHash := hashToken(input.RefreshToken)
	var newAccessToken, newRefreshTokenString string

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		tokenRepo := repoFactory.RefreshTokenRepo()
		userRepo := repoFactory.UserRepo()

		stored, err := tokenRepo.FindByHash(ctx, oldHash)
		if err != nil {
			return domainerrors.ErrRefreshTokenInvalid.WrapMessage("refresh token not found")
		}
		if time.Now().After(stored.ExpiresAt) {
			return domainerrors.ErrRefreshTokenInvalid.WrapMessage("refresh token expired")
		}

		user, err := userRepo.FindByID(ctx, claims.UserID)
		if err != nil {
			return errors.Wrap(err, "failed to find user")
		}
		if !user.IsActive {
			return domainerrors.ErrUserInactive.WrapMessage("refresh rejected")
		}

		newAccessToken, newRefreshTokenString, err = srv.tokenSvc.GenerateTokens(user.ID)
		if err != nil {
			return errors.Wrap(err, "failed to generate new tokens")
		}

		newRefreshToken := &entity.RefreshToken{
			UserID:    user.ID,
			TokenHash: hashToken(newRefreshTokenString),
			ExpiresAt: time.Now().Add(srv.tokenSvc.RefreshTokenDuration()),
		}
		if err := tokenRepo.Create(ctx, newRefreshToken); err != nil {
			return errors.WithStack(err)
		}

		if err := tokenRepo.DeleteByHash(ctx, oldHash); err != nil {
			// The user already holds a new valid token; log and move on.
			srv.logger.Warn("Failed to delete old refresh token", "error", err)
		}

		return nil
	})

	if err != nil {
		srv.logger.Warn("Refresh token rotation failed", "error", err.Error())

		return nil, err
	}

	return &usecase.RefreshOutput{
		AccessToken:  newAccessToken,
		RefreshToken: newRefreshTokenString,
	}, nil
}

// Logout ends the session belonging to the given refresh token. Logging out
// an already-invalid token is not an error.
func (srv *userService) Logout(ctx context.Context, input *usecase.LogoutInput) error {
	if _, err := srv.tokenSvc.ValidateToken(input.RefreshToken); err != nil {
		srv.logger.Warn("Logout with invalid token", "error", err)
	}

	err := srv.tokenRepo.DeleteByHash(ctx, hashToken(input.RefreshToken))
	if err != nil && !errors.Is(err, repository.ErrTokenNotFound) {
		return errors.Wrap(err, "failed to delete refresh token")
	}

	srv.logger.Info("Session ended")

	return nil
}

// Deactivate disables an account and ends all of its sessions. The flag
// update and the session sweep happen in one transaction so a deactivated
// account cannot keep a usable refresh token.
func (srv *userService) Deactivate(ctx context.Context, userID uuid.UUID) error {
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if err := repoFactory.UserRepo().SetActive(ctx, userID, false); err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return domainerrors.ErrUserNotFound.WrapMessage("deactivate failed")
			}

			return errors.Wrap(err, "failed to deactivate user")
		}

		return errors.WithStack(repoFactory.RefreshTokenRepo().DeleteByUser(ctx, userID))
	})
	if err != nil {
		srv.logger.Warn("Account deactivation failed", "userID", userID, "error", err.Error())

		return err
	}

	srv.logger.Info("Account deactivated", "userID", userID)

	return nil
}

// GetUser returns a user's public data and friend links.
func (srv *userService) GetUser(ctx context.Context, id uuid.UUID) (*usecase.GetUserOutput, error) {
	user, err := srv.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domainerrors.ErrUserNotFound.WrapMessage("get user failed")
		}

		return nil, errors.Wrap(err, "failed to find user by id")
	}

	friends, err := srv.userRepo.ListFriends(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list friends")
	}

	return &usecase.GetUserOutput{User: user, Friends: friends}, nil
}

// AddFriend links another user to the given user.
func (srv *userService) AddFriend(ctx context.Context, input *usecase.AddFriendInput) error {
	if input.UserID == input.FriendID {
		return domainerrors.ErrInvalidArgument.WrapMessage("cannot add yourself as a friend")
	}

	if err := srv.userRepo.AddFriend(ctx, &entity.Friend{
		UserID:   input.UserID,
		FriendID: input.FriendID,
		Name:     input.Name,
	}); err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			return domainerrors.ErrUserNotFound.WrapMessage("add friend failed")
		case errors.Is(err, repository.ErrDuplicateFriend):
			return domainerrors.ErrFriendAlreadyExists.WrapMessage("add friend failed")
		default:
			return errors.Wrap(err, "failed to add friend")
		}
	}

	return nil
}

// ListFriends returns the friend links owned by the given user.
func (srv *userService) ListFriends(ctx context.Context, userID uuid.UUID) ([]*entity.Friend, error) {
	friends, err := srv.userRepo.ListFriends(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list friends")
	}

	return friends, nil
}

func (srv *userService) registerFailed(err error) error {
	srv.metrics.Registrations.WithLabelValues(metrics.OutcomeFailure).Inc()

	return err
}

// hashToken stores only a SHA-256 digest of the raw refresh token, so a
// database leak does not leak usable sessions.
func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))

	return hex.EncodeToString(sum[:])
}
