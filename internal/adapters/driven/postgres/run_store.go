package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/custodia-labs/sentinel-core/internal/core/domain"
	"github.com/custodia-labs/sentinel-core/internal/core/ports/driven"
)

// Ensure RunStore implements the interface.
var _ driven.RunStore = (*RunStore)(nil)

// RunStore implements driven.RunStore using PostgreSQL. A run and its
// ordered outcome log commit in one transaction.
type RunStore struct {
	db *DB
}

// NewRunStore creates a new PostgreSQL-backed run store.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db}
}

// Save stores a finished run with its outcomes.
func (s *RunStore) Save(ctx context.Context, run *domain.ModerationRun) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO moderation_runs (
				id, user_email, channel, started_at, ended_at,
				muted_count, blocked_count, reported_count, failed_count
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, run.ID, run.UserEmail, run.Channel, run.StartedAt, run.EndedAt,
			run.MutedCount, run.BlockedCount, run.ReportedCount, run.FailedCount)
		if err != nil {
			return fmt.Errorf("save run: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO moderation_outcomes (run_id, seq, target, action, succeeded, reason)
			VALUES ($1, $2, $3, $4, $5, $6)
		`)
		if err != nil {
			return fmt.Errorf("prepare outcome insert: %w", err)
		}
		defer stmt.Close()

		for seq, o := range run.Outcomes {
			if _, err := stmt.ExecContext(ctx, run.ID, seq, o.Target, string(o.Action), o.Succeeded, o.Reason); err != nil {
				return fmt.Errorf("save outcome %d: %w", seq, err)
			}
		}
		return nil
	})
}

// Get retrieves a run by ID, outcomes in original order.
func (s *RunStore) Get(ctx context.Context, id string) (*domain.ModerationRun, error) {
	var run domain.ModerationRun
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_email, channel, started_at, ended_at,
		       muted_count, blocked_count, reported_count, failed_count
		FROM moderation_runs
		WHERE id = $1
	`, id).Scan(
		&run.ID, &run.UserEmail, &run.Channel, &run.StartedAt, &run.EndedAt,
		&run.MutedCount, &run.BlockedCount, &run.ReportedCount, &run.FailedCount,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT target, action, succeeded, reason
		FROM moderation_outcomes
		WHERE run_id = $1
		ORDER BY seq ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("get run outcomes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var o domain.ActionOutcome
		var action string
		if err := rows.Scan(&o.Target, &action, &o.Succeeded, &o.Reason); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Action = domain.ActionKind(action)
		run.Outcomes = append(run.Outcomes, o)
	}
	return &run, rows.Err()
}

// ListByUser retrieves a user's runs, most recent first, without outcome
// detail.
func (s *RunStore) ListByUser(ctx context.Context, userEmail string, limit int) ([]*domain.ModerationRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_email, channel, started_at, ended_at,
		       muted_count, blocked_count, reported_count, failed_count
		FROM moderation_runs
		WHERE user_email = $1
		ORDER BY started_at DESC
		LIMIT $2
	`, userEmail, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.ModerationRun
	for rows.Next() {
		var run domain.ModerationRun
		if err := rows.Scan(
			&run.ID, &run.UserEmail, &run.Channel, &run.StartedAt, &run.EndedAt,
			&run.MutedCount, &run.BlockedCount, &run.ReportedCount, &run.FailedCount,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}
