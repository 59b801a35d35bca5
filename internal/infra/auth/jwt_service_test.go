package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fritime/config"
	domainerrors "fritime/internal/domain/errors"
	"fritime/internal/domain/service"
)

func newTestTokenService(t *testing.T, accessSecret, refreshSecret string) service.TokenService {
	t.Helper()

	cfg := &config.Config{}
	cfg.SecretKey.Access = accessSecret
	cfg.SecretKey.Refresh = refreshSecret

	svc, err := NewJWTService(cfg)
	require.NoError(t, err)

	return svc
}

func TestJWTService_IssueAndValidate(t *testing.T) {
	svc := newTestTokenService(t, "access-secret", "refresh-secret")
	userID := uuid.New()

	token, err := svc.Issue(userID, time.Minute, service.TokenKindAccess)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, service.TokenKindAccess, claims.Kind)
}

func TestJWTService_GenerateTokens_DistinctKinds(t *testing.T) {
	svc := newTestTokenService(t, "access-secret", "refresh-secret")
	userID := uuid.New()

	access, refresh, err := svc.GenerateTokens(userID)
	require.NoError(t, err)
	assert.NotEqual(t, access, refresh)

	accessClaims, err := svc.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, service.TokenKindAccess, accessClaims.Kind)

	refreshClaims, err := svc.ValidateToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, service.TokenKindRefresh, refreshClaims.Kind)
}

func TestJWTService_Issue_NonPositiveTTL(t *testing.T) {
	svc := newTestTokenService(t, "access-secret", "refresh-secret")

	_, err := svc.Issue(uuid.New(), 0, service.TokenKindAccess)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidArgument)

	_, err = svc.Issue(uuid.New(), -time.Minute, service.TokenKindAccess)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidArgument)
}

func TestJWTService_Issue_UnknownKind(t *testing.T) {
	svc := newTestTokenService(t, "access-secret", "refresh-secret")

	_, err := svc.Issue(uuid.New(), time.Minute, "session")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidArgument)
}

func TestJWTService_ValidateToken_Expired(t *testing.T) {
	svc := newTestTokenService(t, "access-secret", "refresh-secret")

	token, err := svc.Issue(uuid.New(), time.Millisecond, service.TokenKindAccess)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, domainerrors.ErrTokenExpired)
}

func TestJWTService_ValidateToken_WrongSecret(t *testing.T) {
	svc := newTestTokenService(t, "access-secret", "refresh-secret")
	other := newTestTokenService(t, "different-access", "different-refresh")

	token, err := other.Issue(uuid.New(), time.Minute, service.TokenKindAccess)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, domainerrors.ErrTokenSignatureInvalid)
}

func TestJWTService_ValidateToken_CrossKindSecrets(t *testing.T) {
	svc := newTestTokenService(t, "access-secret", "refresh-secret")
	userID := uuid.New()

	// Each kind is verified against its own secret, so a refresh token is
	// never accepted as if it were signed with the access key.
	refreshToken, err := svc.Issue(userID, time.Minute, service.TokenKindRefresh)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(refreshToken)
	require.NoError(t, err)
	assert.Equal(t, service.TokenKindRefresh, claims.Kind)
}

func TestJWTService_ValidateToken_Garbage(t *testing.T) {
	svc := newTestTokenService(t, "access-secret", "refresh-secret")

	_, err := svc.ValidateToken("definitely.not.a.jwt")
	assert.ErrorIs(t, err, domainerrors.ErrTokenMalformed)

	_, err = svc.ValidateToken("")
	assert.ErrorIs(t, err, domainerrors.ErrTokenMalformed)
}

func TestNewJWTService_MissingSecrets(t *testing.T) {
	_, err := NewJWTService(nil)
	assert.ErrorIs(t, err, domainerrors.ErrSigningKeyMissing)

	cfg := &config.Config{}
	cfg.SecretKey.Access = "access-only"
	_, err = NewJWTService(cfg)
	assert.ErrorIs(t, err, domainerrors.ErrSigningKeyMissing)
}

func TestJWTService_RefreshTokenDuration(t *testing.T) {
	cfg := &config.Config{
		Auth: &config.AuthConfig{RefreshTTL: 42 * time.Hour},
	}
	cfg.SecretKey.Access = "access-secret"
	cfg.SecretKey.Refresh = "refresh-secret"

	svc, err := NewJWTService(cfg)
	require.NoError(t, err)
	assert.Equal(t, 42*time.Hour, svc.RefreshTokenDuration())
}
