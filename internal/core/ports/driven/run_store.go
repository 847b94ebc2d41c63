package driven

import (
	"context"

	"github.com/custodia-labs/sentinel-core/internal/core/domain"
)

// RunStore persists completed moderation runs and their ordered outcome
// logs for reporting.
type RunStore interface {
	// Save stores a finished run with its outcomes.
	Save(ctx context.Context, run *domain.ModerationRun) error

	// Get retrieves a run by ID, outcomes in original order.
	Get(ctx context.Context, id string) (*domain.ModerationRun, error)

	// ListByUser retrieves a user's runs, most recent first, without
	// outcome detail.
	ListByUser(ctx context.Context, userEmail string, limit int) ([]*domain.ModerationRun, error)
}
