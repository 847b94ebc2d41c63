package driven

import (
	"context"
	"fmt"
)

// ProviderError is a non-2xx response from the remote API. It carries the
// provider's status and body so callers can surface them without retrying.
type ProviderError struct {
	Status int
	Body   string
}

func (e *ProviderError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("provider returned status %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("provider returned status %d", e.Status)
}

// DecodeError is a provider response whose body could not be decoded as
// expected (malformed form encoding or JSON).
type DecodeError struct {
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode provider response: %v", e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// RequestToken is an unconfirmed 1.0a request token issued by the provider
// at the start of the three-legged handshake.
type RequestToken struct {
	Token  string
	Secret string
}

// AccessToken is a confirmed 1.0a access token pair.
type AccessToken struct {
	Token  string
	Secret string
}

// Identity is the remote account behind a credential.
type Identity struct {
	ProviderUserID string
	DisplayName    string
}

// OAuth1Provider drives the provider side of the three-legged handshake.
// Every call is bounded by the adapter's HTTP timeout; failures surface as
// *ProviderError or *DecodeError, never as panics.
type OAuth1Provider interface {
	// FetchRequestToken requests a provider request token, binding the
	// given callback URL to this flow.
	FetchRequestToken(ctx context.Context, callbackURL string) (*RequestToken, error)

	// AuthorizationURL builds the user-facing authorization URL for a
	// request token.
	AuthorizationURL(requestToken string) string

	// ExchangeAccessToken exchanges an authorized request token plus
	// verifier for an access token.
	ExchangeAccessToken(ctx context.Context, reqToken *RequestToken, verifier string) (*AccessToken, error)

	// VerifyIdentity calls the identity-verification endpoint with the
	// access token and returns the remote account's id and handle.
	VerifyIdentity(ctx context.Context, token *AccessToken) (*Identity, error)

	// RefreshCredential re-authorizes a stale credential. The provider
	// exposes no 1.0a refresh endpoint, so implementations return the
	// input unchanged; the staleness check still runs and logs.
	RefreshCredential(ctx context.Context, token *AccessToken) (*AccessToken, error)
}

// OAuth2Token is the access/refresh token pair from a PKCE code exchange.
type OAuth2Token struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Scope        string
	ExpiresIn    int
}

// OAuth2Provider drives the provider side of the authorization-code + PKCE
// flow.
type OAuth2Provider interface {
	// BuildAuthURL constructs the provider authorization URL with
	// response_type=code, client id, redirect URI, scopes, state, the code
	// challenge, and code_challenge_method=S256.
	BuildAuthURL(state, codeChallenge string) string

	// ExchangeCode exchanges an authorization code for tokens using HTTP
	// Basic auth plus a form-encoded body including code_verifier.
	ExchangeCode(ctx context.Context, code, codeVerifier string) (*OAuth2Token, error)

	// RefreshToken exchanges a refresh token for a new token pair.
	RefreshToken(ctx context.Context, refreshToken string) (*OAuth2Token, error)

	// GetUserInfo fetches the account's identity using the access token as
	// a Bearer credential.
	GetUserInfo(ctx context.Context, accessToken string) (*Identity, error)
}

// ModerationAPI performs per-target moderation actions with a stored 1.0a
// credential. Each call is an independent signed request; a non-2xx response
// or transport failure returns *ProviderError so the pipeline can record it
// and continue.
type ModerationAPI interface {
	Mute(ctx context.Context, token *AccessToken, targetHandle string) error
	Block(ctx context.Context, token *AccessToken, targetHandle string) error
	ReportSpam(ctx context.Context, token *AccessToken, targetHandle string) error
}
