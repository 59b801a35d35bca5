package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"fritime/internal/delivery/http/middleware"
	"fritime/internal/delivery/http/response"
	"fritime/internal/domain/entity"
	"fritime/internal/usecase"
)

type addFriendRequest struct {
	FriendID string `json:"friend_id" validate:"required,uuid"`
	Name     string `json:"name"`
}

type friendResponse struct {
	FriendID  uuid.UUID `json:"friend_id"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type userDetailResponse struct {
	*userResponse
	Friends []*friendResponse `json:"friends"`
}

func toFriendResponses(friends []*entity.Friend) []*friendResponse {
	out := make([]*friendResponse, 0, len(friends))
	for _, f := range friends {
		out = append(out, &friendResponse{
			FriendID:  f.FriendID,
			Name:      f.Name,
			CreatedAt: f.CreatedAt,
		})
	}

	return out
}

// UserHandler holds dependencies for user resource handlers.
type UserHandler struct {
	uc     usecase.UserUsecase
	logger *slog.Logger
}

// NewUserHandler is the constructor for UserHandler, injected by Fx.
func NewUserHandler(uc usecase.UserUsecase, logger *slog.Logger) *UserHandler {
	return &UserHandler{uc: uc, logger: logger}
}

// GetUser returns a user's public profile together with their friends.
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid user ID format")
	}

	output, err := h.uc.GetUser(c.Request().Context(), id)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, &userDetailResponse{
		userResponse: toUserResponse(output.User),
		Friends:      toFriendResponses(output.Friends),
	}, "User retrieved successfully")
}

// AddFriend links another user to the authenticated user.
func (h *UserHandler) AddFriend(c echo.Context) error {
	userID, ok := c.Get(middleware.ContextKeyUserID).(uuid.UUID)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Invalid user ID in token")
	}

	var req addFriendRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid friend input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	friendID, err := uuid.Parse(req.FriendID)
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid friend ID format")
	}

	if err := h.uc.AddFriend(c.Request().Context(), &usecase.AddFriendInput{
		UserID:   userID,
		FriendID: friendID,
		Name:     req.Name,
	}); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, nil, "Friend added successfully")
}

// Deactivate disables the authenticated user's account and ends all of
// their sessions.
func (h *UserHandler) Deactivate(c echo.Context) error {
	userID, ok := c.Get(middleware.ContextKeyUserID).(uuid.UUID)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Invalid user ID in token")
	}

	if err := h.uc.Deactivate(c.Request().Context(), userID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Account deactivated")
}

// ListFriends returns the authenticated user's friend links.
func (h *UserHandler) ListFriends(c echo.Context) error {
	userID, ok := c.Get(middleware.ContextKeyUserID).(uuid.UUID)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Invalid user ID in token")
	}

	friends, err := h.uc.ListFriends(c.Request().Context(), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toFriendResponses(friends), "Friends retrieved successfully")
}
