package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/custodia-labs/sentinel-core/internal/core/domain"
	"github.com/custodia-labs/sentinel-core/internal/core/ports/driven"
	"github.com/custodia-labs/sentinel-core/internal/core/ports/driving"
)

// Ensure moderationService implements ModerationService
var _ driving.ModerationService = (*moderationService)(nil)

// runLockTTL bounds how long a per-user run lock may be held. Runs are
// short; an instance that dies mid-run must not block the user forever.
const runLockTTL = 5 * time.Minute

// ModerationServiceConfig holds configuration for the moderation service.
type ModerationServiceConfig struct {
	// API performs the signed per-target actions.
	API driven.ModerationAPI

	// CredentialStore supplies the user's stored 1.0a credential.
	CredentialStore driven.OAuth1CredentialStore

	// TargetResolver maps a channel to its impersonator handles.
	TargetResolver driven.TargetResolver

	// RunStore persists finished runs.
	RunStore driven.RunStore

	// Lock serializes runs per owning user.
	Lock driven.DistributedLock

	// Provider refreshes stale credentials. The refresh is a no-op against
	// this provider but keeps the staleness check observable.
	Provider driven.OAuth1Provider

	// Logger for pipeline events. Secrets are never logged.
	Logger *slog.Logger
}

// moderationService implements the ModerationService interface.
type moderationService struct {
	api             driven.ModerationAPI
	credentialStore driven.OAuth1CredentialStore
	targetResolver  driven.TargetResolver
	runStore        driven.RunStore
	lock            driven.DistributedLock
	provider        driven.OAuth1Provider
	logger          *slog.Logger
	now             func() time.Time
}

// NewModerationService creates a new moderation service.
func NewModerationService(cfg ModerationServiceConfig) driving.ModerationService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &moderationService{
		api:             cfg.API,
		credentialStore: cfg.CredentialStore,
		targetResolver:  cfg.TargetResolver,
		runStore:        cfg.RunStore,
		lock:            cfg.Lock,
		provider:        cfg.Provider,
		logger:          logger,
		now:             time.Now,
	}
}

// Run executes the pipeline under a per-user lock. Each target gets mute,
// block, and report in that fixed order; an action failure is recorded and
// the pipeline moves on. The finished run is persisted before returning.
func (s *moderationService) Run(ctx context.Context, req driving.RunRequest) (*driving.RunResponse, error) {
	lockName := "moderation:run:" + req.Auth.Email
	acquired, err := s.lock.Acquire(ctx, lockName, runLockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !acquired {
		return nil, domain.ErrRunInProgress
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx), lockName); err != nil {
			s.logger.Warn("failed to release run lock", "lock", lockName, "error", err)
		}
	}()

	cred, err := s.credentialStore.GetByUser(ctx, req.Auth.Email)
	if err != nil {
		return nil, fmt.Errorf("get credential: %w", err)
	}
	if cred == nil {
		return nil, domain.ErrNoCredential
	}

	stale := cred.NeedsRefresh()
	token := &driven.AccessToken{Token: cred.Token, Secret: cred.TokenSecret}
	if stale {
		s.logger.Warn("credential older than refresh window",
			"user", cred.UserEmail,
			"last_refreshed", cred.LastRefreshedAt,
		)
		refreshed, err := s.provider.RefreshCredential(ctx, token)
		if err != nil {
			// Staleness is advisory. The stored token may still work.
			s.logger.Warn("credential refresh failed", "user", cred.UserEmail, "error", err)
		} else {
			token = refreshed
		}
	}

	targets := req.Targets
	if len(targets) == 0 {
		targets, err = s.targetResolver.Resolve(ctx, req.Channel)
		if err != nil {
			return nil, fmt.Errorf("resolve targets for %q: %w", req.Channel, err)
		}
	}

	runID, err := generateRunID()
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}
	run := &domain.ModerationRun{
		ID:        runID,
		UserEmail: req.Auth.Email,
		Channel:   req.Channel,
		StartedAt: s.now(),
	}

	for _, target := range targets {
		for _, action := range domain.Actions {
			outcome := domain.ActionOutcome{Target: target, Action: action, Succeeded: true}
			if err := s.perform(ctx, action, token, target); err != nil {
				outcome.Succeeded = false
				outcome.Reason = err.Error()
				s.logger.Warn("action failed",
					"run_id", run.ID,
					"target", target,
					"action", string(action),
					"error", err,
				)
			}
			run.Record(outcome)
		}
	}
	run.EndedAt = s.now()

	if err := s.runStore.Save(ctx, run); err != nil {
		return nil, fmt.Errorf("save run: %w", err)
	}

	s.logger.Info("moderation run finished",
		"run_id", run.ID,
		"user", run.UserEmail,
		"channel", run.Channel,
		"targets", len(targets),
		"muted", run.MutedCount,
		"blocked", run.BlockedCount,
		"reported", run.ReportedCount,
		"failed", run.FailedCount,
	)

	return &driving.RunResponse{Run: run, CredentialStale: stale}, nil
}

// GetRun retrieves a persisted run. Users can only read their own runs.
func (s *moderationService) GetRun(ctx context.Context, auth domain.AuthContext, runID string) (*domain.ModerationRun, error) {
	run, err := s.runStore.Get(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.UserEmail != auth.Email {
		return nil, domain.ErrForbidden
	}
	return run, nil
}

// ListRuns retrieves the user's recent runs without outcome detail.
func (s *moderationService) ListRuns(ctx context.Context, auth domain.AuthContext, limit int) ([]*domain.ModerationRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.runStore.ListByUser(ctx, auth.Email, limit)
}

func (s *moderationService) perform(ctx context.Context, action domain.ActionKind, token *driven.AccessToken, target string) error {
	switch action {
	case domain.ActionMute:
		return s.api.Mute(ctx, token, target)
	case domain.ActionBlock:
		return s.api.Block(ctx, token, target)
	case domain.ActionReport:
		return s.api.ReportSpam(ctx, token, target)
	default:
		return fmt.Errorf("unknown action %q", action)
	}
}

// generateRunID generates a unique run ID.
func generateRunID() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return "run_" + hex.EncodeToString(bytes), nil
}
