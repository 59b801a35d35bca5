// Package middleware contains the HTTP middleware for the service.
package middleware

import (
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"

	"fritime/internal/delivery/http/response"
	"fritime/internal/usecase"
)

// Context keys set by Authenticate.
const (
	ContextKeyUserID = "userID"
)

// AuthMiddleware provides middleware for access token authentication.
type AuthMiddleware struct {
	uc     usecase.UserUsecase
	logger *slog.Logger
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(uc usecase.UserUsecase, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{uc: uc, logger: logger}
}

// Authenticate validates the bearer access token. Every validation failure
// (expired, tampered, malformed) answers the same 401 envelope; the specific
// kind only appears in the server log, so clients learn nothing about why
// their token was rejected.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return response.Unauthorized(c, "UNAUTHORIZED", "Authorization header is missing")
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return response.Unauthorized(c, "UNAUTHORIZED", "Invalid token format, must be Bearer token")
		}

		userID, err := m.uc.Authorize(c.Request().Context(), tokenString)
		if err != nil {
			m.logger.Info("Token rejected",
				"error", err.Error(),
				"path", c.Request().URL.Path,
			)

			return response.Unauthorized(c, "UNAUTHORIZED", "Invalid or expired token")
		}

		c.Set(ContextKeyUserID, userID)

		return next(c)
	}
}
