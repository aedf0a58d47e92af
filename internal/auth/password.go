// Package auth — password hashing utilities.
//
// WHY BCRYPT?
// bcrypt is a password hashing function designed to be slow. That slowness
// is a security feature: it makes brute-force attacks expensive.
//
// bcrypt automatically:
//   - Generates a random salt (two users with the same password get different hashes)
//   - Embeds the salt in the output hash (no separate salt column needed)
//   - Controls the work factor via "cost"
//
// NEVER store passwords in plain text or with fast hashes (MD5, SHA-256).
//
// Hash format (the full output of bcrypt.GenerateFromPassword):
//
//	$2a$10$<22-char salt><31-char hash>
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor: 2^10 = 1024 rounds.
// Raise it if login latency allows — the stored hashes encode their own
// cost, so old hashes keep verifying after a bump.
const defaultCost = 10

// PasswordService provides bcrypt hashing and verification.
//
// It's a struct (not free functions) so the cost can be injected in tests —
// cost 4 makes the test suite fast without changing the logic under test.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the default cost.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest creates a PasswordService with a custom
// (usually minimum) bcrypt cost. Do NOT use in production.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash hashes the given plaintext password with bcrypt.
//
// The output is a self-contained string — store it directly in the
// database; it includes the salt and cost.
//
// Returns an error for passwords over 72 bytes: bcrypt silently truncates
// beyond that, and we'd rather reject than surprise.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks whether a plaintext password matches a stored bcrypt hash.
// Returns nil on match. bcrypt's comparison is constant-time, so this is
// safe against timing attacks.
//
// An empty stored hash (OAuth-only account) never matches anything.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
