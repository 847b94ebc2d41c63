package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/custodia-labs/sentinel-core/internal/core/domain"
	"github.com/custodia-labs/sentinel-core/internal/core/ports/driven"
	"github.com/custodia-labs/sentinel-core/internal/core/ports/driving"
)

// Ensure oauth2FlowService implements OAuth2FlowService
var _ driving.OAuth2FlowService = (*oauth2FlowService)(nil)

// codeVerifierLength is the PKCE verifier length in characters.
const codeVerifierLength = 128

// codeVerifierAlphabet is the RFC 7636 unreserved character set.
const codeVerifierAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"

// OAuth2FlowServiceConfig holds configuration for the PKCE flow service.
type OAuth2FlowServiceConfig struct {
	// Provider drives the remote side of the flow.
	Provider driven.OAuth2Provider

	// CredentialStore persists reconciled credentials.
	CredentialStore driven.OAuth2CredentialStore

	// FlowStateStore stashes the session-bound flow state.
	FlowStateStore driven.FlowStateStore

	// Logger for flow events. Secrets are never logged.
	Logger *slog.Logger
}

// oauth2FlowService implements the OAuth2FlowService interface.
type oauth2FlowService struct {
	provider        driven.OAuth2Provider
	credentialStore driven.OAuth2CredentialStore
	flowStateStore  driven.FlowStateStore
	logger          *slog.Logger
	now             func() time.Time
}

// NewOAuth2FlowService creates a new PKCE flow service.
func NewOAuth2FlowService(cfg OAuth2FlowServiceConfig) driving.OAuth2FlowService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &oauth2FlowService{
		provider:        cfg.Provider,
		credentialStore: cfg.CredentialStore,
		flowStateStore:  cfg.FlowStateStore,
		logger:          logger,
		now:             time.Now,
	}
}

// Begin generates the PKCE verifier, its S256 challenge, and a CSRF state,
// stores verifier and state in the session's flow state, and returns the
// authorization URL.
func (s *oauth2FlowService) Begin(ctx context.Context, req driving.OAuth2BeginRequest) (*driving.OAuth2BeginResponse, error) {
	state, err := generateState()
	if err != nil {
		return nil, fmt.Errorf("generate state: %w", err)
	}
	verifier, err := generateCodeVerifier()
	if err != nil {
		return nil, fmt.Errorf("generate code verifier: %w", err)
	}
	challenge := codeChallengeS256(verifier)

	now := s.now()
	expiresAt := now.Add(driven.RequestSecretCacheTTL)
	flowState := &driven.FlowState{
		SessionID:    req.Auth.SessionID,
		CSRFState:    state,
		CodeVerifier: verifier,
		CreatedAt:    now,
		ExpiresAt:    expiresAt,
	}
	if err := s.flowStateStore.Save(ctx, flowState); err != nil {
		return nil, fmt.Errorf("save flow state: %w", err)
	}

	s.logger.Info("oauth2 flow started", "user", req.Auth.Email)

	return &driving.OAuth2BeginResponse{
		AuthorizationURL: s.provider.BuildAuthURL(state, challenge),
		State:            state,
		ExpiresAt:        expiresAt.Format(time.RFC3339),
	}, nil
}

// Complete validates the callback against the session's flow state, then
// exchanges the code and reconciles the credential. State comparison is
// strict equality; an absent stored state fails the same way as a mismatch.
func (s *oauth2FlowService) Complete(ctx context.Context, req driving.OAuth2CompleteRequest) (*driving.OAuth2CompleteResponse, error) {
	if req.Error != "" {
		_, _ = s.flowStateStore.GetAndDelete(ctx, req.Auth.SessionID)
		s.logger.Info("oauth2 flow denied", "user", req.Auth.Email, "error", req.Error)
		return nil, driving.ErrDenied
	}
	if req.Code == "" {
		return nil, driving.ErrMissingParameters
	}
	// An absent returned state is handled by the comparison below: any
	// difference from the stored value, including absence on either side,
	// is a state mismatch.

	flowState, err := s.flowStateStore.GetAndDelete(ctx, req.Auth.SessionID)
	if err != nil {
		return nil, fmt.Errorf("get flow state: %w", err)
	}
	if flowState == nil || flowState.CSRFState == "" || flowState.CSRFState != req.State {
		return nil, driving.ErrStateMismatch
	}
	if flowState.CodeVerifier == "" {
		return nil, driving.ErrMissingVerifier
	}

	token, err := s.provider.ExchangeCode(ctx, req.Code, flowState.CodeVerifier)
	if err != nil {
		return nil, exchangeError(err)
	}

	identity, err := s.provider.GetUserInfo(ctx, token.AccessToken)
	if err != nil {
		return nil, identityError(err)
	}

	now := s.now()
	incoming := &domain.OAuth2Credential{
		UserEmail:            req.Auth.Email,
		ProviderUserID:       identity.ProviderUserID,
		DisplayName:          identity.DisplayName,
		AccessToken:          token.AccessToken,
		RefreshToken:         token.RefreshToken,
		State:                req.State,
		CodeVerifier:         flowState.CodeVerifier,
		CodeChallenge:        codeChallengeS256(flowState.CodeVerifier),
		CodeChallengeMethod:  "S256",
		AccessTokenExpiresIn: token.ExpiresIn,
		CreatedAt:            now,
		LastRefreshedAt:      now,
	}

	reconciler := &oauth2Reconciler{store: s.credentialStore}
	stored, err := reconciler.Reconcile(ctx, incoming)
	if err != nil {
		return nil, err
	}

	s.logger.Info("oauth2 flow reconciled",
		"user", stored.UserEmail,
		"provider_user_id", stored.ProviderUserID,
	)

	return &driving.OAuth2CompleteResponse{
		Phase:      driving.PhaseReconciled,
		Credential: stored.ToSummary(),
		Message:    fmt.Sprintf("Connected as @%s", stored.DisplayName),
	}, nil
}

// generateState generates a cryptographically secure CSRF state value.
func generateState() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// generateCodeVerifier draws codeVerifierLength characters uniformly from
// the RFC 7636 unreserved alphabet.
func generateCodeVerifier() (string, error) {
	bytes := make([]byte, codeVerifierLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	out := make([]byte, codeVerifierLength)
	for i, b := range bytes {
		out[i] = codeVerifierAlphabet[int(b)%len(codeVerifierAlphabet)]
	}
	return string(out), nil
}

// codeChallengeS256 creates a PKCE code challenge from a verifier (S256
// method): base64url of the SHA-256 digest, padding stripped.
func codeChallengeS256(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}
