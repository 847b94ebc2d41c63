package driven

import "github.com/custodia-labs/sentinel-core/internal/core/domain"

// AuthAdapter handles authentication cryptographic operations.
// This does NOT handle storage - transient flow state lives in FlowStateStore.
type AuthAdapter interface {
	// GenerateToken creates a signed bearer token from domain claims
	GenerateToken(claims *domain.TokenClaims) (string, error)

	// ParseToken validates a bearer token and extracts domain claims
	ParseToken(token string) (*domain.TokenClaims, error)
}

// SecretHasher provides one-way hashing of token secrets at rest.
// Used for the request-secret cache, where the stored copy only ever needs
// to be verified, never recovered.
type SecretHasher interface {
	// Hash produces a one-way hash of the secret.
	Hash(secret string) (string, error)

	// Verify reports whether the secret matches the hash.
	Verify(secret, hash string) bool
}
