package driving

import "fmt"

// FlowError represents a flow-controller failure with a stable code.
// Flow errors abort the flow and surface a user-facing failure indicator;
// they are never retried automatically.
type FlowError struct {
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *FlowError) Error() string {
	if e.Description != "" {
		return e.Code + ": " + e.Description
	}
	return e.Code
}

// Session and CSRF integrity failures always fail closed.
var (
	// ErrDenied means the user declined authorization at the provider.
	ErrDenied = &FlowError{Code: "denied", Description: "The user declined authorization"}

	// ErrMissingParameters means the callback lacked oauth_token or oauth_verifier.
	ErrMissingParameters = &FlowError{Code: "missing_parameters", Description: "Callback parameters missing"}

	// ErrMissingSessionSecret means the session-bound request-token secret is
	// gone - the session expired or the flow was replayed out of order.
	ErrMissingSessionSecret = &FlowError{Code: "missing_session_secret", Description: "The session-bound request token secret is missing or expired"}

	// ErrStateMismatch means the returned state did not exactly match the
	// session-stored value, including the stored value being absent.
	ErrStateMismatch = &FlowError{Code: "state_mismatch", Description: "The state parameter is invalid or expired"}

	// ErrMissingVerifier means no PKCE code verifier is in the session.
	ErrMissingVerifier = &FlowError{Code: "missing_verifier", Description: "The code verifier is missing or expired"}
)

// TokenExchangeError is a non-200 from the PKCE token-exchange endpoint.
type TokenExchangeError struct {
	Status int
	Body   string
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("token exchange failed: status %d: %s", e.Status, e.Body)
}

// IdentityFetchError is a non-200 from the user-info endpoint.
type IdentityFetchError struct {
	Status int
	Body   string
}

func (e *IdentityFetchError) Error() string {
	return fmt.Sprintf("identity fetch failed: status %d: %s", e.Status, e.Body)
}

// IntegrityError means the incoming provider account already belongs to a
// different owning user. The database is left untouched; the PKCE path does
// not archive-and-retry the way the 1.0a path does.
type IntegrityError struct {
	ProviderUserID string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("provider account %s already belongs to another user", e.ProviderUserID)
}

// ReconciliationError is any other persistence conflict during credential
// upsert. The triggering transaction was rolled back; no partial writes
// remain.
type ReconciliationError struct {
	Cause error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("credential reconciliation failed: %v", e.Cause)
}

func (e *ReconciliationError) Unwrap() error {
	return e.Cause
}
