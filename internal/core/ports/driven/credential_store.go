package driven

import (
	"context"

	"github.com/custodia-labs/sentinel-core/internal/core/domain"
)

// OAuth1CredentialStore persists three-legged OAuth 1.0a credentials.
//
// Writes are transactional: a method either applies every field it names and
// commits, or rolls back and leaves the store untouched. Uniqueness
// violations surface as *domain.ConstraintViolationError with the violated
// constraint identified, after rollback.
type OAuth1CredentialStore interface {
	// Create inserts a new credential for its owning user.
	Create(ctx context.Context, cred *domain.OAuth1Credential) error

	// GetByUser retrieves the active credential for an owning user.
	// Returns nil, nil if the user has no credential.
	GetByUser(ctx context.Context, userEmail string) (*domain.OAuth1Credential, error)

	// GetByProviderUserID retrieves the active credential holding the given
	// provider account ID. Returns nil, nil if none exists.
	GetByProviderUserID(ctx context.Context, providerUserID string) (*domain.OAuth1Credential, error)

	// GetByTokenPair retrieves the active credential holding the given
	// (token, token secret) pair. Returns nil, nil if none exists.
	GetByTokenPair(ctx context.Context, token, tokenSecret string) (*domain.OAuth1Credential, error)

	// RefreshInPlace overwrites the matching record's owner, provider
	// account, display name, verifier, token material, and refresh
	// timestamp. No history entry is written: this is the same credential
	// being re-confirmed, possibly under a new owning user.
	RefreshInPlace(ctx context.Context, userEmail string, cred *domain.OAuth1Credential) error

	// ArchiveAndReplace appends the existing record's full prior state to
	// its history, then overwrites all fields with cred and sets the
	// refresh timestamp. The archive and overwrite commit atomically.
	ArchiveAndReplace(ctx context.Context, userEmail string, cred *domain.OAuth1Credential) error
}

// OAuth2CredentialStore persists authorization-code + PKCE credentials.
// One active credential per owning user; token material is updated in place
// on re-authorization (no history, unlike the 1.0a store).
type OAuth2CredentialStore interface {
	// Create inserts a new credential for its owning user.
	Create(ctx context.Context, cred *domain.OAuth2Credential) error

	// GetByUser retrieves the active credential for an owning user.
	// Returns nil, nil if the user has no credential.
	GetByUser(ctx context.Context, userEmail string) (*domain.OAuth2Credential, error)

	// Update overwrites the user's existing credential in place.
	Update(ctx context.Context, cred *domain.OAuth2Credential) error
}
