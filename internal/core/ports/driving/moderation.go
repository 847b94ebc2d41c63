package driving

import (
	"context"

	"github.com/custodia-labs/sentinel-core/internal/core/domain"
)

// ModerationService runs the impersonator action pipeline: for each resolved
// target, in order, mute then block then report with the user's stored 1.0a
// credential. A single failure never aborts the run; the complete ordered
// outcome log is returned and persisted. The pipeline performs no retries -
// retry policy belongs to the caller.
type ModerationService interface {
	// Run executes the pipeline for a channel's impersonator list.
	Run(ctx context.Context, req RunRequest) (*RunResponse, error)

	// GetRun retrieves a persisted run with its outcome log.
	GetRun(ctx context.Context, auth domain.AuthContext, runID string) (*domain.ModerationRun, error)

	// ListRuns retrieves the user's recent runs without outcome detail.
	ListRuns(ctx context.Context, auth domain.AuthContext, limit int) ([]*domain.ModerationRun, error)
}

// RunRequest names the channel whose impersonators should be actioned.
// Targets may be supplied directly; when empty, the channel is resolved
// through the target resolver.
type RunRequest struct {
	Auth domain.AuthContext

	// Channel is the impersonated channel handle.
	Channel string `json:"channel"`

	// Targets overrides resolution when non-empty.
	Targets []string `json:"targets,omitempty"`
}

// RunResponse carries the completed run.
type RunResponse struct {
	Run *domain.ModerationRun `json:"run"`

	// CredentialStale is set when the credential used was older than the
	// refresh window. The refresh itself is a no-op against this provider.
	CredentialStale bool `json:"credential_stale,omitempty"`
}
