package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"fritime/config"
	"fritime/internal/delivery/http/middleware"
	"fritime/internal/delivery/http/validator"
	"fritime/internal/infra/auth"
	"fritime/internal/infra/metrics"
	"fritime/internal/infra/persistence/memory"
	"fritime/internal/usecase/impl"
)

// newTestServer wires the full HTTP stack against the in-memory store, so
// these tests cover binding, validation, the auth middleware and the error
// handler together with the real business logic.
func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()

	cfg := &config.Config{
		Auth: &config.AuthConfig{
			BcryptCost: bcrypt.MinCost,
			AccessTTL:  time.Minute,
			RefreshTTL: time.Hour,
		},
	}
	cfg.SecretKey.Access = "test-access-secret"
	cfg.SecretKey.Refresh = "test-refresh-secret"

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hasher, err := auth.NewBcryptHasher(cfg)
	require.NoError(t, err)
	tokenSvc, err := auth.NewJWTService(cfg)
	require.NoError(t, err)

	store := memory.NewStore()
	uc := impl.NewUserService(
		memory.NewTransactionManager(store),
		store.UserRepo(),
		store.RefreshTokenRepo(),
		hasher,
		tokenSvc,
		metrics.NewWith(prometheus.NewRegistry()),
		logger,
	)

	e := echo.New()
	e.Validator = validator.New()
	e.HTTPErrorHandler = middleware.NewErrorMiddleware(logger).HandleHTTPError

	authHandler := NewAuthHandler(uc, logger)
	userHandler := NewUserHandler(uc, logger)
	authMw := middleware.NewAuthMiddleware(uc, logger)

	e.GET("/health", HealthCheck)
	authGroup := e.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/refresh", authHandler.Refresh)
	authGroup.POST("/logout", authHandler.Logout)
	authGroup.GET("/me", authHandler.Me, authMw.Authenticate)

	userGroup := e.Group("/users")
	userGroup.Use(authMw.Authenticate)
	userGroup.GET("/:id", userHandler.GetUser)
	userGroup.POST("/me/friends", userHandler.AddFriend)
	userGroup.GET("/me/friends", userHandler.ListFriends)
	userGroup.POST("/me/deactivate", userHandler.Deactivate)

	return e
}

func doJSON(e *echo.Echo, method, path, body, bearer string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var envelope struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)

	return envelope.Data
}

func registerAndLogin(t *testing.T, e *echo.Echo, email string) (userID, accessToken, refreshToken string) {
	t.Helper()

	rec := doJSON(e, http.MethodPost, "/auth/register",
		`{"name":"Alice","email":"`+email+`","password":"Sup3rSecret"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	userID = decodeData(t, rec)["id"].(string)

	rec = doJSON(e, http.MethodPost, "/auth/login",
		`{"email":"`+email+`","password":"Sup3rSecret"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	accessToken = data["access_token"].(string)
	refreshToken = data["refresh_token"].(string)

	return userID, accessToken, refreshToken
}

func TestAuthFlow_RegisterLoginMe(t *testing.T) {
	e := newTestServer(t)

	userID, accessToken, _ := registerAndLogin(t, e, "alice@example.com")

	rec := doJSON(e, http.MethodGet, "/auth/me", "", accessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	assert.Equal(t, userID, data["id"])
	assert.Equal(t, "alice@example.com", data["email"])

	// The password hash never appears in any response.
	assert.NotContains(t, rec.Body.String(), "password")
	assert.NotContains(t, rec.Body.String(), "$2a$")
}

func TestAuthFlow_RegisterValidation(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/auth/register", `{"email":"not-an-email","password":"Sup3rSecret"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(e, http.MethodPost, "/auth/register", `{"email":"alice@example.com"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(e, http.MethodPost, "/auth/register", `{"email":"alice@example.com","password":"weak"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthFlow_DuplicateRegistration(t *testing.T) {
	e := newTestServer(t)
	registerAndLogin(t, e, "alice@example.com")

	rec := doJSON(e, http.MethodPost, "/auth/register",
		`{"name":"Impostor","email":"alice@example.com","password":"An0therSecret"}`, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "USER_ALREADY_EXISTS")
}

func TestAuthFlow_LoginFailuresAreUniform(t *testing.T) {
	e := newTestServer(t)
	registerAndLogin(t, e, "alice@example.com")

	wrongPass := doJSON(e, http.MethodPost, "/auth/login",
		`{"email":"alice@example.com","password":"WrongSecret1"}`, "")
	unknown := doJSON(e, http.MethodPost, "/auth/login",
		`{"email":"nobody@example.com","password":"WrongSecret1"}`, "")

	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, wrongPass.Body.String(), unknown.Body.String())
}

func TestAuthFlow_RefreshAndLogout(t *testing.T) {
	e := newTestServer(t)
	_, _, refreshToken := registerAndLogin(t, e, "alice@example.com")

	rec := doJSON(e, http.MethodPost, "/auth/refresh", `{"refresh_token":"`+refreshToken+`"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	rotated := decodeData(t, rec)["refresh_token"].(string)
	assert.NotEqual(t, refreshToken, rotated)

	// The spent token no longer refreshes.
	rec = doJSON(e, http.MethodPost, "/auth/refresh", `{"refresh_token":"`+refreshToken+`"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(e, http.MethodPost, "/auth/logout", `{"refresh_token":"`+rotated+`"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodPost, "/auth/refresh", `{"refresh_token":"`+rotated+`"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthFlow_MeRequiresToken(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(e, http.MethodGet, "/auth/me", "", "not-a-real-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserFlow_FriendsAndLookup(t *testing.T) {
	e := newTestServer(t)
	aliceID, aliceToken, _ := registerAndLogin(t, e, "alice@example.com")
	bobID, _, _ := registerAndLogin(t, e, "bob@example.com")

	rec := doJSON(e, http.MethodPost, "/users/me/friends",
		`{"friend_id":"`+bobID+`","name":"Bob"}`, aliceToken)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Duplicate link conflicts.
	rec = doJSON(e, http.MethodPost, "/users/me/friends",
		`{"friend_id":"`+bobID+`","name":"Bob"}`, aliceToken)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(e, http.MethodGet, "/users/me/friends", "", aliceToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), bobID)

	rec = doJSON(e, http.MethodGet, "/users/"+aliceID, "", aliceToken)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	assert.Equal(t, aliceID, data["id"])

	rec = doJSON(e, http.MethodGet, "/users/not-a-uuid", "", aliceToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserFlow_Deactivate(t *testing.T) {
	e := newTestServer(t)
	_, accessToken, refreshToken := registerAndLogin(t, e, "alice@example.com")

	rec := doJSON(e, http.MethodPost, "/users/me/deactivate", "", accessToken)
	require.Equal(t, http.StatusOK, rec.Code)

	// The access token is dead the moment the account is deactivated.
	rec = doJSON(e, http.MethodGet, "/auth/me", "", accessToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(e, http.MethodPost, "/auth/refresh", `{"refresh_token":"`+refreshToken+`"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(e, http.MethodPost, "/auth/login",
		`{"email":"alice@example.com","password":"Sup3rSecret"}`, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHealthCheck(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
