package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/custodia-labs/sentinel-core/internal/core/domain"
	"github.com/custodia-labs/sentinel-core/internal/core/ports/driven"
	"github.com/custodia-labs/sentinel-core/internal/core/ports/driving"
)

// Ensure oauth1FlowService implements OAuth1FlowService
var _ driving.OAuth1FlowService = (*oauth1FlowService)(nil)

// OAuth1FlowServiceConfig holds configuration for the 1.0a flow service.
type OAuth1FlowServiceConfig struct {
	// Provider drives the remote side of the handshake.
	Provider driven.OAuth1Provider

	// CredentialStore persists reconciled credentials.
	CredentialStore driven.OAuth1CredentialStore

	// FlowStateStore stashes the session-bound flow state.
	FlowStateStore driven.FlowStateStore

	// RequestSecretCache holds one-way hashes of request-token secrets,
	// keyed by provider-issued request token.
	RequestSecretCache driven.RequestSecretCache

	// SecretHasher hashes request-token secrets before caching.
	SecretHasher driven.SecretHasher

	// CallbackURL is the absolute URL the provider redirects back to.
	// Example: "https://app.example.com/api/v1/oauth1/callback"
	CallbackURL string

	// Logger for flow events. Secrets are never logged.
	Logger *slog.Logger
}

// oauth1FlowService implements the OAuth1FlowService interface.
type oauth1FlowService struct {
	provider        driven.OAuth1Provider
	credentialStore driven.OAuth1CredentialStore
	flowStateStore  driven.FlowStateStore
	secretCache     driven.RequestSecretCache
	hasher          driven.SecretHasher
	callbackURL     string
	logger          *slog.Logger
	now             func() time.Time
}

// NewOAuth1FlowService creates a new 1.0a flow service.
func NewOAuth1FlowService(cfg OAuth1FlowServiceConfig) driving.OAuth1FlowService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &oauth1FlowService{
		provider:        cfg.Provider,
		credentialStore: cfg.CredentialStore,
		flowStateStore:  cfg.FlowStateStore,
		secretCache:     cfg.RequestSecretCache,
		hasher:          cfg.SecretHasher,
		callbackURL:     cfg.CallbackURL,
		logger:          logger,
		now:             time.Now,
	}
}

// Begin obtains a request token from the provider and stashes its secret:
// the raw value session-bound for later signing, a one-way hash keyed by the
// token itself with an unconditional TTL.
func (s *oauth1FlowService) Begin(ctx context.Context, req driving.OAuth1BeginRequest) (*driving.OAuth1BeginResponse, error) {
	reqToken, err := s.provider.FetchRequestToken(ctx, s.callbackURL)
	if err != nil {
		return nil, fmt.Errorf("fetch request token: %w", err)
	}

	secretHash, err := s.hasher.Hash(reqToken.Secret)
	if err != nil {
		return nil, fmt.Errorf("hash request secret: %w", err)
	}
	if err := s.secretCache.Put(ctx, reqToken.Token, secretHash); err != nil {
		return nil, fmt.Errorf("cache request secret: %w", err)
	}

	now := s.now()
	expiresAt := now.Add(driven.RequestSecretCacheTTL)
	state := &driven.FlowState{
		SessionID:          req.Auth.SessionID,
		RequestTokenSecret: reqToken.Secret,
		CreatedAt:          now,
		ExpiresAt:          expiresAt,
	}
	if err := s.flowStateStore.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("save flow state: %w", err)
	}

	s.logger.Info("oauth1 flow started",
		"user", req.Auth.Email,
		"request_token", reqToken.Token,
	)

	return &driving.OAuth1BeginResponse{
		AuthorizationURL: s.provider.AuthorizationURL(reqToken.Token),
		RequestToken:     reqToken.Token,
		ExpiresAt:        expiresAt.Format(time.RFC3339),
	}, nil
}

// Complete consumes the provider callback. Checks run strictly in order:
// denial, parameter presence, session-bound secret, exchange, identity
// verification, reconciliation. Transient state is consumed before any
// remote call so a failed flow cannot be replayed.
func (s *oauth1FlowService) Complete(ctx context.Context, req driving.OAuth1CompleteRequest) (*driving.OAuth1CompleteResponse, error) {
	if req.Denied != "" {
		// Consume the abandoned state so it cannot leak into a later flow.
		_, _ = s.flowStateStore.GetAndDelete(ctx, req.Auth.SessionID)
		_ = s.secretCache.Delete(ctx, req.Denied)
		s.logger.Info("oauth1 flow denied", "user", req.Auth.Email)
		return nil, driving.ErrDenied
	}
	if req.OAuthToken == "" || req.OAuthVerifier == "" {
		return nil, driving.ErrMissingParameters
	}

	state, err := s.flowStateStore.GetAndDelete(ctx, req.Auth.SessionID)
	if err != nil {
		return nil, fmt.Errorf("get flow state: %w", err)
	}
	if state == nil || state.RequestTokenSecret == "" {
		return nil, driving.ErrMissingSessionSecret
	}

	// The cache entry binds the callback token to the secret issued at
	// begin. A miss or a hash mismatch means the callback does not belong
	// to this session's handshake. The entry is deleted only after a
	// successful match: the token may belong to another session's live
	// handshake, which must stay intact.
	secretHash, err := s.secretCache.Get(ctx, req.OAuthToken)
	if err != nil {
		return nil, fmt.Errorf("get cached secret: %w", err)
	}
	if secretHash == "" || !s.hasher.Verify(state.RequestTokenSecret, secretHash) {
		return nil, driving.ErrMissingSessionSecret
	}
	if err := s.secretCache.Delete(ctx, req.OAuthToken); err != nil {
		return nil, fmt.Errorf("consume cached secret: %w", err)
	}

	reqToken := &driven.RequestToken{Token: req.OAuthToken, Secret: state.RequestTokenSecret}
	access, err := s.provider.ExchangeAccessToken(ctx, reqToken, req.OAuthVerifier)
	if err != nil {
		return nil, exchangeError(err)
	}

	identity, err := s.provider.VerifyIdentity(ctx, access)
	if err != nil {
		return nil, identityError(err)
	}

	now := s.now()
	incoming := &domain.OAuth1Credential{
		UserEmail:       req.Auth.Email,
		ProviderUserID:  identity.ProviderUserID,
		DisplayName:     identity.DisplayName,
		Token:           access.Token,
		TokenSecret:     access.Secret,
		Verifier:        req.OAuthVerifier,
		CreatedAt:       now,
		LastRefreshedAt: now,
	}

	reconciler := &oauth1Reconciler{store: s.credentialStore, now: s.now}
	stored, err := reconciler.Reconcile(ctx, incoming)
	if err != nil {
		return nil, err
	}

	s.logger.Info("oauth1 flow reconciled",
		"user", stored.UserEmail,
		"provider_user_id", stored.ProviderUserID,
		"history_length", len(stored.History),
	)

	return &driving.OAuth1CompleteResponse{
		Phase:      driving.PhaseReconciled,
		Credential: stored.ToSummary(),
		Message:    fmt.Sprintf("Connected as @%s", stored.DisplayName),
	}, nil
}

// exchangeError maps a provider failure during token exchange to the flow
// error taxonomy.
func exchangeError(err error) error {
	var pe *driven.ProviderError
	if errors.As(err, &pe) {
		return &driving.TokenExchangeError{Status: pe.Status, Body: pe.Body}
	}
	return fmt.Errorf("exchange access token: %w", err)
}

// identityError maps a provider failure during identity verification to the
// flow error taxonomy.
func identityError(err error) error {
	var pe *driven.ProviderError
	if errors.As(err, &pe) {
		return &driving.IdentityFetchError{Status: pe.Status, Body: pe.Body}
	}
	return fmt.Errorf("verify identity: %w", err)
}
