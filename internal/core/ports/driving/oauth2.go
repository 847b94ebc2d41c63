package driving

import (
	"context"

	"github.com/custodia-labs/sentinel-core/internal/core/domain"
)

// OAuth2FlowService drives the authorization-code + PKCE flow: verifier and
// challenge generation, authorization redirect, code exchange, identity
// fetch, then reconciliation into the credential store.
type OAuth2FlowService interface {
	// Begin generates PKCE credentials and a CSRF state, stores both in
	// the session's flow state, and returns the authorization URL.
	Begin(ctx context.Context, req OAuth2BeginRequest) (*OAuth2BeginResponse, error)

	// Complete validates the callback, exchanges the code for tokens,
	// fetches the remote identity, and reconciles the credential.
	Complete(ctx context.Context, req OAuth2CompleteRequest) (*OAuth2CompleteResponse, error)
}

// OAuth2BeginRequest starts a PKCE flow for an authenticated user.
type OAuth2BeginRequest struct {
	Auth domain.AuthContext
}

// OAuth2BeginResponse contains the provider authorization redirect target.
type OAuth2BeginResponse struct {
	// AuthorizationURL is the provider URL to redirect the user to.
	AuthorizationURL string `json:"authorization_url"`

	// State is the CSRF token that will be returned in the callback.
	State string `json:"state"`

	// ExpiresAt is when the transient flow state expires.
	ExpiresAt string `json:"expires_at"`
}

// OAuth2CompleteRequest carries the provider callback query parameters.
type OAuth2CompleteRequest struct {
	Auth domain.AuthContext

	// Code is the authorization code from the provider.
	Code string `json:"code"`

	// State is the CSRF token returned by the provider.
	State string `json:"state"`

	// Error is set if the provider returned an error.
	Error string `json:"error,omitempty"`
}

// OAuth2CompleteResponse is the result of a completed, reconciled flow.
type OAuth2CompleteResponse struct {
	Phase      FlowPhase                 `json:"phase"`
	Credential *domain.CredentialSummary `json:"credential"`
	Message    string                    `json:"message"`
}
