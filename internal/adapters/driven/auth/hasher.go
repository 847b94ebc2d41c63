package auth

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/custodia-labs/sentinel-core/internal/core/ports/driven"
)

// Ensure BcryptHasher implements SecretHasher
var _ driven.SecretHasher = (*BcryptHasher)(nil)

// BcryptHasher implements one-way secret hashing with bcrypt. Used for the
// request-secret cache; the cached copy only ever needs verification, never
// recovery.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a hasher with the default bcrypt cost.
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: bcrypt.DefaultCost}
}

// NewBcryptHasherWithCost creates a hasher with a custom bcrypt cost.
// Tests use bcrypt.MinCost to keep hashing fast.
func NewBcryptHasherWithCost(cost int) *BcryptHasher {
	return &BcryptHasher{cost: cost}
}

// Hash produces a one-way bcrypt hash of the secret.
func (h *BcryptHasher) Hash(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether the secret matches the hash.
func (h *BcryptHasher) Verify(secret, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
