package driving

import (
	"context"

	"github.com/custodia-labs/sentinel-core/internal/core/domain"
)

// FlowPhase labels where a flow run ended. Successful completions reach
// PhaseReconciled; failures carry one of the flow errors instead.
type FlowPhase string

const (
	PhaseRequestTokenObtained   FlowPhase = "request_token_obtained"
	PhaseAuthorizationRequested FlowPhase = "authorization_requested"
	PhaseReconciled             FlowPhase = "reconciled"
)

// OAuth1FlowService drives the three-legged OAuth 1.0a handshake:
// request token, user authorization, access token, identity verification,
// then reconciliation into the credential store.
type OAuth1FlowService interface {
	// Begin requests a provider request token bound to a callback URL and
	// stashes the transient secrets. Returns the authorization URL to
	// redirect the user to.
	Begin(ctx context.Context, req OAuth1BeginRequest) (*OAuth1BeginResponse, error)

	// Complete consumes the provider callback, exchanges for an access
	// token, verifies the remote identity, and reconciles the credential.
	Complete(ctx context.Context, req OAuth1CompleteRequest) (*OAuth1CompleteResponse, error)
}

// OAuth1BeginRequest starts a 1.0a flow for an authenticated user.
type OAuth1BeginRequest struct {
	// Auth is the authenticated identity and browser session, passed
	// explicitly - never read from ambient context.
	Auth domain.AuthContext
}

// OAuth1BeginResponse contains the provider authorization redirect target.
type OAuth1BeginResponse struct {
	// AuthorizationURL is the provider URL to redirect the user to.
	AuthorizationURL string `json:"authorization_url"`

	// RequestToken is the unconfirmed token bound to this flow.
	RequestToken string `json:"request_token"`

	// ExpiresAt is when the transient flow state expires.
	ExpiresAt string `json:"expires_at"`
}

// OAuth1CompleteRequest carries the provider callback query parameters.
type OAuth1CompleteRequest struct {
	Auth domain.AuthContext

	// OAuthToken is the oauth_token callback parameter.
	OAuthToken string `json:"oauth_token"`

	// OAuthVerifier is the oauth_verifier callback parameter.
	OAuthVerifier string `json:"oauth_verifier"`

	// Denied is the denied callback parameter, set when the user declined.
	Denied string `json:"denied,omitempty"`
}

// OAuth1CompleteResponse is the result of a completed, reconciled flow.
type OAuth1CompleteResponse struct {
	Phase      FlowPhase                 `json:"phase"`
	Credential *domain.CredentialSummary `json:"credential"`
	Message    string                    `json:"message"`
}
