package twitter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/custodia-labs/sentinel-core/internal/core/ports/driven"
)

// Ensure OAuth1Provider implements the interface.
var _ driven.OAuth1Provider = (*OAuth1Provider)(nil)

// OAuth1Provider drives the three-legged 1.0a handshake against the
// provider API. Every request is signed with the consumer credentials.
type OAuth1Provider struct {
	cfg        Config
	signer     *Signer
	httpClient *http.Client
}

// NewOAuth1Provider creates a new 1.0a provider adapter.
func NewOAuth1Provider(cfg Config) *OAuth1Provider {
	cfg = cfg.withDefaults()
	return &OAuth1Provider{
		cfg:        cfg,
		signer:     NewSigner(cfg.ConsumerKey, cfg.ConsumerSecret),
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

// FetchRequestToken requests a request token, binding the callback URL to
// this flow.
func (p *OAuth1Provider) FetchRequestToken(ctx context.Context, callbackURL string) (*driven.RequestToken, error) {
	values, err := p.tokenLeg(ctx, p.cfg.APIBaseURL+"/oauth/request_token", "", "", map[string]string{
		"oauth_callback": callbackURL,
	})
	if err != nil {
		return nil, err
	}

	token := values.Get("oauth_token")
	secret := values.Get("oauth_token_secret")
	if token == "" || secret == "" {
		return nil, &driven.DecodeError{Cause: fmt.Errorf("request token response missing token fields")}
	}
	return &driven.RequestToken{Token: token, Secret: secret}, nil
}

// AuthorizationURL builds the user-facing authorization URL.
func (p *OAuth1Provider) AuthorizationURL(requestToken string) string {
	return p.cfg.AuthBaseURL + "/oauth/authorize?oauth_token=" + url.QueryEscape(requestToken)
}

// ExchangeAccessToken exchanges an authorized request token plus verifier
// for an access token.
func (p *OAuth1Provider) ExchangeAccessToken(ctx context.Context, reqToken *driven.RequestToken, verifier string) (*driven.AccessToken, error) {
	values, err := p.tokenLeg(ctx, p.cfg.APIBaseURL+"/oauth/access_token", reqToken.Token, reqToken.Secret, map[string]string{
		"oauth_verifier": verifier,
	})
	if err != nil {
		return nil, err
	}

	token := values.Get("oauth_token")
	secret := values.Get("oauth_token_secret")
	if token == "" || secret == "" {
		return nil, &driven.DecodeError{Cause: fmt.Errorf("access token response missing token fields")}
	}
	return &driven.AccessToken{Token: token, Secret: secret}, nil
}

// tokenLeg performs one signed token-endpoint POST and decodes the
// form-encoded response.
func (p *OAuth1Provider) tokenLeg(ctx context.Context, endpoint, token, tokenSecret string, extra map[string]string) (url.Values, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if err := p.signer.Sign(req, nil, token, tokenSecret, extra); err != nil {
		return nil, fmt.Errorf("sign request: %w", err)
	}

	body, err := p.do(req)
	if err != nil {
		return nil, err
	}

	values, err := url.ParseQuery(strings.TrimSpace(string(body)))
	if err != nil {
		return nil, &driven.DecodeError{Cause: err}
	}
	return values, nil
}

// VerifyIdentity calls the credential-verification endpoint and returns the
// remote account's id and handle.
func (p *OAuth1Provider) VerifyIdentity(ctx context.Context, token *driven.AccessToken) (*driven.Identity, error) {
	endpoint := p.cfg.APIBaseURL + "/1.1/account/verify_credentials.json"
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if err := p.signer.Sign(req, nil, token.Token, token.Secret, nil); err != nil {
		return nil, fmt.Errorf("sign request: %w", err)
	}

	body, err := p.do(req)
	if err != nil {
		return nil, err
	}

	var account struct {
		IDStr      string `json:"id_str"`
		ScreenName string `json:"screen_name"`
	}
	if err := decodeJSON(body, &account); err != nil {
		return nil, err
	}
	if account.IDStr == "" {
		return nil, &driven.DecodeError{Cause: fmt.Errorf("verify response missing id_str")}
	}
	return &driven.Identity{ProviderUserID: account.IDStr, DisplayName: account.ScreenName}, nil
}

// RefreshCredential returns the input unchanged: the provider has no 1.0a
// refresh endpoint, tokens stay valid until revoked.
func (p *OAuth1Provider) RefreshCredential(ctx context.Context, token *driven.AccessToken) (*driven.AccessToken, error) {
	return token, nil
}

func (p *OAuth1Provider) do(req *http.Request) ([]byte, error) {
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
