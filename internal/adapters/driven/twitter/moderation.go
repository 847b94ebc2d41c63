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

// Ensure ModerationAPI implements the interface.
var _ driven.ModerationAPI = (*ModerationAPI)(nil)

// ModerationAPI performs mute, block, and report-spam calls signed with a
// stored 1.0a access token. Each call stands alone; a failure surfaces as
// *driven.ProviderError and never interrupts the caller's other calls.
type ModerationAPI struct {
	cfg        Config
	signer     *Signer
	httpClient *http.Client
}

// NewModerationAPI creates a new moderation adapter.
func NewModerationAPI(cfg Config) *ModerationAPI {
	cfg = cfg.withDefaults()
	return &ModerationAPI{
		cfg:        cfg,
		signer:     NewSigner(cfg.ConsumerKey, cfg.ConsumerSecret),
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

// Mute mutes the target account.
func (m *ModerationAPI) Mute(ctx context.Context, token *driven.AccessToken, targetHandle string) error {
	return m.post(ctx, token, "/1.1/mutes/users/create.json", url.Values{
		"screen_name": {targetHandle},
	})
}

// Block blocks the target account.
func (m *ModerationAPI) Block(ctx context.Context, token *driven.AccessToken, targetHandle string) error {
	return m.post(ctx, token, "/1.1/blocks/create.json", url.Values{
		"screen_name": {targetHandle},
	})
}

// ReportSpam reports the target account as spam. Blocking is handled by a
// separate call, so perform_block stays off.
func (m *ModerationAPI) ReportSpam(ctx context.Context, token *driven.AccessToken, targetHandle string) error {
	return m.post(ctx, token, "/1.1/users/report_spam.json", url.Values{
		"screen_name":   {targetHandle},
		"perform_block": {"false"},
	})
}

func (m *ModerationAPI) post(ctx context.Context, token *driven.AccessToken, path string, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, "POST",
		m.cfg.APIBaseURL+path,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	if err := m.signer.Sign(req, form, token.Token, token.Secret, nil); err != nil {
		return fmt.Errorf("sign request: %w", err)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &driven.ProviderError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return nil
}
