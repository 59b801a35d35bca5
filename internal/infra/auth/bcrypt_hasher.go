// Package auth provides concrete implementations for authentication-related
// domain services.
package auth

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"

	"fritime/config"
	domainerrors "fritime/internal/domain/errors"
	"fritime/internal/domain/service"
)

// bcrypt refuses inputs longer than 72 bytes; longer passwords are truncated
// before hashing so that registration and login agree on the effective value.
const maxPasswordBytes = 72

var defaultForbiddenWords = []string{"password", "admin", "fritime"}

// bcryptHasher implements the PasswordHasher interface using bcrypt.
// Hashing is CPU-bound, so all calls share a weighted semaphore: at most
// `workers` hashes run at once and the rest wait, instead of starving
// I/O-bound request handling.
type bcryptHasher struct {
	cost     int
	strength *config.PasswordStrengthConfig
	workers  *semaphore.Weighted
}

// NewBcryptHasher is the constructor for bcryptHasher. The bcrypt cost and
// worker bound come from config; a cost outside bcrypt's supported range is
// a construction error rather than a silent clamp.
func NewBcryptHasher(cfg *config.Config) (service.PasswordHasher, error) {
	cost := bcrypt.DefaultCost
	workers := int64(runtime.GOMAXPROCS(0))
	var strength *config.PasswordStrengthConfig

	if cfg != nil && cfg.Auth != nil && cfg.Auth.BcryptCost != 0 {
		cost = cfg.Auth.BcryptCost
	}
	if cfg != nil && cfg.Auth != nil && cfg.Auth.HashWorkers > 0 {
		workers = int64(cfg.Auth.HashWorkers)
	}
	if cfg != nil {
		strength = cfg.PasswordStrength
	}

	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, domainerrors.ErrInvalidArgument.WrapMessage("bcrypt cost out of range")
	}

	return &bcryptHasher{
		cost:     cost,
		strength: strength,
		workers:  semaphore.NewWeighted(workers),
	}, nil
}

// Hash generates a salted hash from a plaintext password using bcrypt.
// bcrypt handles salt generation, so hashing the same password twice
// produces different outputs.
func (h *bcryptHasher) Hash(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", domainerrors.ErrPasswordHashFailed.WrapMessage("password must not be empty")
	}

	if err := h.workers.Acquire(ctx, 1); err != nil {
		return "", domainerrors.ErrPasswordHashFailed.WrapMessage("hashing cancelled")
	}
	defer h.workers.Release(1)

	bytes, err := bcrypt.GenerateFromPassword(normalizePassword(password), h.cost)
	if err != nil {
		return "", domainerrors.ErrPasswordHashFailed.WrapMessage(err.Error())
	}

	return string(bytes), nil
}

// Check compares a plaintext password with a bcrypt hash. A mismatch is not
// an error; only an unusable stored hash is.
func (h *bcryptHasher) Check(ctx context.Context, password, hash string) (bool, error) {
	if err := h.workers.Acquire(ctx, 1); err != nil {
		return false, domainerrors.ErrPasswordHashFailed.WrapMessage("hash check cancelled")
	}
	defer h.workers.Release(1)

	err := bcrypt.CompareHashAndPassword([]byte(hash), normalizePassword(password))
	if err == nil {
		return true, nil
	}
	if err == bcrypt.ErrMismatchedHashAndPassword {
		return false, nil
	}

	// Anything else means the stored hash itself is unusable.
	return false, domainerrors.ErrPasswordHashFailed.WrapMessage("stored password hash is malformed")
}

// ValidatePasswordStrength checks a candidate password against the configured
// strength policy. Defaults apply when no policy is configured.
func (h *bcryptHasher) ValidatePasswordStrength(password string) error {
	minLength := 8
	requireUpper, requireLower, requireNumbers := true, true, true
	forbidden := defaultForbiddenWords

	if h.strength != nil {
		if h.strength.MinLength > 0 {
			minLength = h.strength.MinLength
		}
		requireUpper = h.strength.RequireUppercase
		requireLower = h.strength.RequireLowercase
		requireNumbers = h.strength.RequireNumbers
		if len(h.strength.ForbiddenWords) > 0 {
			forbidden = h.strength.ForbiddenWords
		}
	}

	if len(password) < minLength {
		return domainerrors.ErrPasswordStrength.WrapMessage(
			fmt.Sprintf("password must be at least %d characters long", minLength))
	}
	if requireUpper && !containsClass(password, unicode.IsUpper) {
		return domainerrors.ErrPasswordStrength.WrapMessage("password must contain at least one uppercase letter")
	}
	if requireLower && !containsClass(password, unicode.IsLower) {
		return domainerrors.ErrPasswordStrength.WrapMessage("password must contain at least one lowercase letter")
	}
	if requireNumbers && !containsClass(password, unicode.IsDigit) {
		return domainerrors.ErrPasswordStrength.WrapMessage("password must contain at least one number")
	}
	if containsForbiddenWords(password, forbidden) {
		return domainerrors.ErrPasswordForbiddenWords.WrapMessage("password contains forbidden words")
	}

	return nil
}

func normalizePassword(password string) []byte {
	raw := []byte(password)
	if len(raw) > maxPasswordBytes {
		raw = raw[:maxPasswordBytes]
	}

	return raw
}

func containsClass(s string, belongs func(rune) bool) bool {
	for _, r := range s {
		if belongs(r) {
			return true
		}
	}

	return false
}

func containsForbiddenWords(password string, words []string) bool {
	lowered := strings.ToLower(password)
	for _, word := range words {
		if word != "" && strings.Contains(lowered, strings.ToLower(word)) {
			return true
		}
	}

	return false
}
