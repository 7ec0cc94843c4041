package auth

import (
	"fmt"

	"github.com/alexedwards/argon2id"
)

// PasswordHasher hashes passwords with argon2id. Hashes are PHC strings
// carrying their own salt and parameters, so Verify accepts hashes made
// with older parameters too.
type PasswordHasher struct {
	params *argon2id.Params
}

func NewPasswordHasher(params *argon2id.Params) *PasswordHasher {
	if params == nil {
		params = argon2id.DefaultParams
	}
	return &PasswordHasher{params: params}
}

// Hash returns a salted argon2id hash of the plaintext. A fresh random
// salt is drawn on every call.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	hash, err := argon2id.CreateHash(plaintext, h.params)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

// Verify reports whether plaintext matches hash. A malformed hash is
// reported as a mismatch rather than an error.
func (h *PasswordHasher) Verify(plaintext, hash string) bool {
	match, err := argon2id.ComparePasswordAndHash(plaintext, hash)
	if err != nil {
		return false
	}
	return match
}
