package driven

import (
	"context"
	"time"
)

// FlowState is the transient state of one authorization round trip, keyed by
// browser session. It is created at flow-begin and must not outlive the
// corresponding flow-complete call or a provider-side denial.
type FlowState struct {
	// SessionID identifies the browser session that started the flow.
	SessionID string

	// CSRFState is the random state value echoed back by the provider
	// (PKCE flows).
	CSRFState string

	// CodeVerifier is the PKCE code verifier (plain text, not hashed).
	// Sent as code_verifier during token exchange.
	CodeVerifier string

	// RequestTokenSecret is the unconfirmed 1.0a request-token secret.
	// The provider's signing step requires the original secret, so the raw
	// value is held here for the lifetime of the handshake only.
	RequestTokenSecret string

	// CreatedAt is when the state was created.
	CreatedAt time.Time

	// ExpiresAt is when the state expires (typically 10 minutes).
	ExpiresAt time.Time
}

// FlowStateStore manages transient flow state, keyed by session identity.
// States are single-use and expire after a short period; a state stored by
// an aborted flow is treated as expired on next access rather than reused.
type FlowStateStore interface {
	// Save stores flow state for a session, replacing any previous state.
	Save(ctx context.Context, state *FlowState) error

	// GetAndDelete atomically retrieves and deletes the session's state.
	// This ensures single-use semantics.
	// Returns nil, nil if the state doesn't exist or has expired.
	GetAndDelete(ctx context.Context, sessionID string) (*FlowState, error)

	// Cleanup removes expired states.
	Cleanup(ctx context.Context) error
}

// RequestSecretCacheTTL bounds how long a request-token secret hash may live
// in the cache, regardless of whether the handshake completes.
const RequestSecretCacheTTL = 10 * time.Minute

// RequestSecretCache maps a provider-issued request token to a one-way hash
// of its secret for the duration of a single 1.0a handshake. Entries expire
// unconditionally after RequestSecretCacheTTL. The token value is unique to
// one handshake, so concurrent handshakes for different users coexist; a
// second begin for the same user overwrites the first, and the loser's
// complete call fails cleanly on the session-bound secret instead.
type RequestSecretCache interface {
	// Put stores the secret hash keyed by request token, bounded by TTL.
	Put(ctx context.Context, token, secretHash string) error

	// Get retrieves the hash for a token without consuming it. Returns
	// "", nil if the token is unknown or expired. The entry is deleted
	// separately, only once the caller has verified it against the
	// session-bound secret: a lookup with a foreign token must not
	// destroy the owning session's in-flight handshake.
	Get(ctx context.Context, token string) (string, error)

	// Delete removes the entry for a token. Unknown tokens are a no-op.
	Delete(ctx context.Context, token string) error

	// Cleanup removes expired entries.
	Cleanup(ctx context.Context) error
}
