package domain

import "time"

// RefreshWindow is how long a 1.0a credential may go without re-authorization
// before it is flagged as due for a proactive refresh.
const RefreshWindow = 30 * 24 * time.Hour

// AccountSnapshot captures the full prior state of a 1.0a credential at the
// moment it was replaced by a different provider account. Snapshots are
// append-only and ordered.
type AccountSnapshot struct {
	ProviderUserID string    `json:"provider_user_id"`
	DisplayName    string    `json:"display_name"`
	Token          string    `json:"-"` // Never serialize
	TokenSecret    string    `json:"-"` // Never serialize
	Verifier       string    `json:"-"` // Never serialize
	CreatedAt      time.Time `json:"created_at"`
	ArchivedAt     time.Time `json:"archived_at"`
}

// OAuth1Credential is a three-legged OAuth 1.0a credential owned by a user.
// At most one active credential exists per owning user; the (token, token
// secret) pair and the provider user ID are unique across active credentials.
type OAuth1Credential struct {
	UserEmail      string `json:"user_email"`
	ProviderUserID string `json:"provider_user_id"`
	DisplayName    string `json:"display_name"`

	Token       string `json:"-"` // Never serialize
	TokenSecret string `json:"-"` // Never serialize
	Verifier    string `json:"-"` // Never serialize

	CreatedAt       time.Time `json:"created_at"`
	LastRefreshedAt time.Time `json:"last_refreshed_at"`

	// History holds archived prior-account snapshots, oldest first.
	History []AccountSnapshot `json:"history,omitempty"`
}

// NeedsRefresh reports whether the credential is due for proactive
// re-authorization (older than 30 days since the last refresh).
func (c *OAuth1Credential) NeedsRefresh() bool {
	if c.LastRefreshedAt.IsZero() {
		return false
	}
	return time.Since(c.LastRefreshedAt) > RefreshWindow
}

// Snapshot captures the credential's current identity for archival.
func (c *OAuth1Credential) Snapshot(archivedAt time.Time) AccountSnapshot {
	return AccountSnapshot{
		ProviderUserID: c.ProviderUserID,
		DisplayName:    c.DisplayName,
		Token:          c.Token,
		TokenSecret:    c.TokenSecret,
		Verifier:       c.Verifier,
		CreatedAt:      c.CreatedAt,
		ArchivedAt:     archivedAt,
	}
}

// OAuth2Credential is an authorization-code + PKCE credential owned by a user.
// Unlike the 1.0a variant it keeps no account history: re-authorization
// updates the token material in place.
type OAuth2Credential struct {
	UserEmail      string `json:"user_email"`
	ProviderUserID string `json:"provider_user_id"`
	DisplayName    string `json:"display_name"`

	AccessToken  string `json:"-"` // Never serialize
	RefreshToken string `json:"-"` // Never serialize

	State               string `json:"-"`
	CodeVerifier        string `json:"-"`
	CodeChallenge       string `json:"code_challenge,omitempty"`
	CodeChallengeMethod string `json:"code_challenge_method,omitempty"`

	AccessTokenExpiresIn int       `json:"access_token_expires_in,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	LastRefreshedAt      time.Time `json:"last_refreshed_at"`
}

// IsExpired checks whether the access token has outlived its advertised
// lifetime, measured from the last refresh.
func (c *OAuth2Credential) IsExpired() bool {
	if c.AccessTokenExpiresIn <= 0 {
		return false
	}
	deadline := c.LastRefreshedAt.Add(time.Duration(c.AccessTokenExpiresIn) * time.Second)
	return time.Now().After(deadline)
}

// CredentialSummary provides a safe view without token material.
type CredentialSummary struct {
	UserEmail      string    `json:"user_email"`
	ProviderUserID string    `json:"provider_user_id"`
	DisplayName    string    `json:"display_name"`
	HasToken       bool      `json:"has_token"`
	HistoryLength  int       `json:"history_length,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	LastRefreshed  time.Time `json:"last_refreshed_at"`
}

// ToSummary converts an OAuth1Credential to a CredentialSummary.
func (c *OAuth1Credential) ToSummary() *CredentialSummary {
	return &CredentialSummary{
		UserEmail:      c.UserEmail,
		ProviderUserID: c.ProviderUserID,
		DisplayName:    c.DisplayName,
		HasToken:       c.Token != "" && c.TokenSecret != "",
		HistoryLength:  len(c.History),
		CreatedAt:      c.CreatedAt,
		LastRefreshed:  c.LastRefreshedAt,
	}
}

// ToSummary converts an OAuth2Credential to a CredentialSummary.
func (c *OAuth2Credential) ToSummary() *CredentialSummary {
	return &CredentialSummary{
		UserEmail:      c.UserEmail,
		ProviderUserID: c.ProviderUserID,
		DisplayName:    c.DisplayName,
		HasToken:       c.AccessToken != "",
		CreatedAt:      c.CreatedAt,
		LastRefreshed:  c.LastRefreshedAt,
	}
}
