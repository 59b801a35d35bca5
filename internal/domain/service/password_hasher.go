// Package service defines interfaces for core, stateless domain logic.
// These services encapsulate business rules that don't naturally fit within
// a single entity.
package service

import "context"

// PasswordHasher defines the interface for password hashing and verification.
// This abstracts the underlying hashing algorithm (e.g., bcrypt), keeping the
// domain pure. Hashing is CPU-bound; implementations may block the caller
// while waiting for a worker slot, which is why both operations take a ctx.
type PasswordHasher interface {
	// Hash generates a salted hash from a plaintext password. The same
	// password hashed twice yields different values.
	Hash(ctx context.Context, password string) (string, error)

	// Check compares a plaintext password with a stored hash in constant
	// time. A mismatch returns (false, nil); an error is returned only when
	// the stored hash itself is unusable.
	Check(ctx context.Context, password, hash string) (bool, error)

	// ValidatePasswordStrength checks a candidate password against the
	// configured strength policy.
	ValidatePasswordStrength(password string) error
}
