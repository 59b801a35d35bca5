package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"fritime/config"
	domainerrors "fritime/internal/domain/errors"
)

func newTestHasher(t *testing.T) *bcryptHasher {
	t.Helper()

	hasher, err := NewBcryptHasher(&config.Config{
		Auth: &config.AuthConfig{BcryptCost: bcrypt.MinCost},
	})
	require.NoError(t, err)

	return hasher.(*bcryptHasher)
}

func TestBcryptHasher_HashAndCheck_RoundTrip(t *testing.T) {
	hasher := newTestHasher(t)
	ctx := context.Background()

	hash, err := hasher.Hash(ctx, "Sup3rSecret")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2a$"))

	ok, err := hasher.Check(ctx, "Sup3rSecret", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hasher.Check(ctx, "WrongSecret1", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBcryptHasher_Hash_SaltsEachCall(t *testing.T) {
	hasher := newTestHasher(t)
	ctx := context.Background()

	first, err := hasher.Hash(ctx, "Sup3rSecret")
	require.NoError(t, err)
	second, err := hasher.Hash(ctx, "Sup3rSecret")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestBcryptHasher_Hash_EmptyPassword(t *testing.T) {
	hasher := newTestHasher(t)

	_, err := hasher.Hash(context.Background(), "")
	assert.ErrorIs(t, err, domainerrors.ErrPasswordHashFailed)
}

func TestBcryptHasher_Check_MalformedStoredHash(t *testing.T) {
	hasher := newTestHasher(t)

	ok, err := hasher.Check(context.Background(), "Sup3rSecret", "not-a-bcrypt-hash")
	assert.False(t, ok)
	assert.ErrorIs(t, err, domainerrors.ErrPasswordHashFailed)
}

func TestBcryptHasher_Hash_TruncatesAt72Bytes(t *testing.T) {
	hasher := newTestHasher(t)
	ctx := context.Background()

	long := strings.Repeat("A", 70) + "1a" + strings.Repeat("x", 30)
	hash, err := hasher.Hash(ctx, long)
	require.NoError(t, err)

	// Everything past byte 72 does not participate in the hash.
	ok, err := hasher.Check(ctx, long[:maxPasswordBytes]+"completely-different-tail", hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewBcryptHasher_CostOutOfRange(t *testing.T) {
	_, err := NewBcryptHasher(&config.Config{
		Auth: &config.AuthConfig{BcryptCost: bcrypt.MaxCost + 1},
	})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidArgument)
}

func TestValidatePasswordStrength_Defaults(t *testing.T) {
	hasher := newTestHasher(t)

	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{name: "valid", password: "Sup3rSecret", wantErr: nil},
		{name: "too short", password: "Ab1", wantErr: domainerrors.ErrPasswordStrength},
		{name: "no uppercase", password: "sup3rsecret", wantErr: domainerrors.ErrPasswordStrength},
		{name: "no lowercase", password: "SUP3RSECRET", wantErr: domainerrors.ErrPasswordStrength},
		{name: "no digits", password: "SuperSecret", wantErr: domainerrors.ErrPasswordStrength},
		{name: "forbidden word", password: "MyPassword1", wantErr: domainerrors.ErrPasswordForbiddenWords},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := hasher.ValidatePasswordStrength(tt.password)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePasswordStrength_CustomPolicy(t *testing.T) {
	hasher, err := NewBcryptHasher(&config.Config{
		Auth: &config.AuthConfig{BcryptCost: bcrypt.MinCost},
		PasswordStrength: &config.PasswordStrengthConfig{
			MinLength:      4,
			ForbiddenWords: []string{"qwerty"},
		},
	})
	require.NoError(t, err)

	// Relaxed policy: no character class requirements.
	assert.NoError(t, hasher.ValidatePasswordStrength("abcd"))
	assert.ErrorIs(t, hasher.ValidatePasswordStrength("abc"), domainerrors.ErrPasswordStrength)
	assert.ErrorIs(t, hasher.ValidatePasswordStrength("myqwerty"), domainerrors.ErrPasswordForbiddenWords)
}
