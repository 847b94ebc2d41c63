package twitter

import "time"

// Config holds the provider application credentials and endpoints.
// Base URLs are overridable so tests can point at a local server.
type Config struct {
	// ConsumerKey and ConsumerSecret are the 1.0a application credentials.
	ConsumerKey    string
	ConsumerSecret string

	// ClientID and ClientSecret are the OAuth 2.0 application credentials.
	ClientID     string
	ClientSecret string

	// RedirectURI is the registered OAuth 2.0 callback.
	RedirectURI string

	// Scopes requested in the OAuth 2.0 flow. Defaults to DefaultScopes.
	Scopes []string

	// APIBaseURL is the API host. Default: https://api.twitter.com
	APIBaseURL string

	// AuthBaseURL is the user-facing authorization host.
	// Default: https://twitter.com
	AuthBaseURL string

	// HTTPTimeout bounds each provider call. Default: 30s.
	HTTPTimeout time.Duration
}

// DefaultScopes covers reading the account plus managing mutes and blocks,
// with offline access for refresh tokens.
func DefaultScopes() []string {
	return []string{
		"tweet.read",
		"users.read",
		"mute.read",
		"mute.write",
		"block.read",
		"block.write",
		"offline.access",
	}
}

func (c Config) withDefaults() Config {
	if c.APIBaseURL == "" {
		c.APIBaseURL = "https://api.twitter.com"
	}
	if c.AuthBaseURL == "" {
		c.AuthBaseURL = "https://twitter.com"
	}
	if len(c.Scopes) == 0 {
		c.Scopes = DefaultScopes()
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 30 * time.Second
	}
	return c
}
