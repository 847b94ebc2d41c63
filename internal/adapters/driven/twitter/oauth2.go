package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/custodia-labs/sentinel-core/internal/core/ports/driven"
)

// Ensure OAuth2Provider implements the interface.
var _ driven.OAuth2Provider = (*OAuth2Provider)(nil)

// OAuth2Provider drives the authorization-code + PKCE flow against the
// provider API.
type OAuth2Provider struct {
	cfg        Config
	httpClient *http.Client
}

// NewOAuth2Provider creates a new OAuth 2.0 provider adapter.
func NewOAuth2Provider(cfg Config) *OAuth2Provider {
	cfg = cfg.withDefaults()
	return &OAuth2Provider{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

// BuildAuthURL constructs the provider authorization URL.
func (p *OAuth2Provider) BuildAuthURL(state, codeChallenge string) string {
	params := url.Values{
		"response_type":         {"code"},
		"client_id":             {p.cfg.ClientID},
		"redirect_uri":          {p.cfg.RedirectURI},
		"scope":                 {strings.Join(p.cfg.Scopes, " ")},
		"state":                 {state},
		"code_challenge":        {codeChallenge},
		"code_challenge_method": {"S256"},
	}
	return p.cfg.AuthBaseURL + "/i/oauth2/authorize?" + params.Encode()
}

// ExchangeCode exchanges an authorization code for tokens. The client
// authenticates with HTTP Basic auth; the code verifier travels in the
// form body.
func (p *OAuth2Provider) ExchangeCode(ctx context.Context, code, codeVerifier string) (*driven.OAuth2Token, error) {
	return p.tokenRequest(ctx, url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {p.cfg.RedirectURI},
		"code_verifier": {codeVerifier},
	})
}

// RefreshToken exchanges a refresh token for a new token pair.
func (p *OAuth2Provider) RefreshToken(ctx context.Context, refreshToken string) (*driven.OAuth2Token, error) {
	return p.tokenRequest(ctx, url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	})
}

func (p *OAuth2Provider) tokenRequest(ctx context.Context, params url.Values) (*driven.OAuth2Token, error) {
	req, err := http.NewRequestWithContext(ctx, "POST",
		p.cfg.APIBaseURL+"/2/oauth2/token",
		strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(p.cfg.ClientID, p.cfg.ClientSecret)

	body, err := p.do(req)
	if err != nil {
		return nil, err
	}

	var tokenResp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		TokenType    string `json:"token_type"`
		Scope        string `json:"scope"`
		ExpiresIn    int    `json:"expires_in"`
	}
	if err := decodeJSON(body, &tokenResp); err != nil {
		return nil, err
	}
	if tokenResp.AccessToken == "" {
		return nil, &driven.DecodeError{Cause: fmt.Errorf("token response missing access_token")}
	}

	return &driven.OAuth2Token{
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
		TokenType:    tokenResp.TokenType,
		Scope:        tokenResp.Scope,
		ExpiresIn:    tokenResp.ExpiresIn,
	}, nil
}

// GetUserInfo fetches the account's identity with the access token as a
// Bearer credential.
func (p *OAuth2Provider) GetUserInfo(ctx context.Context, accessToken string) (*driven.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", p.cfg.APIBaseURL+"/2/users/me", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	body, err := p.do(req)
	if err != nil {
		return nil, err
	}

	var userResp struct {
		Data struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"data"`
	}
	if err := decodeJSON(body, &userResp); err != nil {
		return nil, err
	}
	if userResp.Data.ID == "" {
		return nil, &driven.DecodeError{Cause: fmt.Errorf("user response missing id")}
	}
	return &driven.Identity{ProviderUserID: userResp.Data.ID, DisplayName: userResp.Data.Username}, nil
}

func (p *OAuth2Provider) do(req *http.Request) ([]byte, error) {
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &driven.ProviderError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

// decodeJSON unmarshals a provider response body, wrapping failures in
// *driven.DecodeError.
func decodeJSON(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return &driven.DecodeError{Cause: err}
	}
	return nil
}
