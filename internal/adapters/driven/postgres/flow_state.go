package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/custodia-labs/sentinel-core/internal/core/ports/driven"
)

// Ensure FlowStateStore implements the interface.
var _ driven.FlowStateStore = (*FlowStateStore)(nil)

// DefaultFlowStateTTL is the default time-to-live for flow states.
const DefaultFlowStateTTL = 10 * time.Minute

// FlowStateStore implements driven.FlowStateStore using PostgreSQL.
// Fallback backend when Redis is not configured.
type FlowStateStore struct {
	db  *DB
	ttl time.Duration
}

// NewFlowStateStore creates a new PostgreSQL-backed flow state store.
func NewFlowStateStore(db *DB) *FlowStateStore {
	return &FlowStateStore{db: db, ttl: DefaultFlowStateTTL}
}

// Save stores flow state for a session, replacing any previous state.
func (s *FlowStateStore) Save(ctx context.Context, state *driven.FlowState) error {
	now := time.Now()
	if state.CreatedAt.IsZero() {
		state.CreatedAt = now
	}
	if state.ExpiresAt.IsZero() {
		state.ExpiresAt = now.Add(s.ttl)
	}

	query := `
		INSERT INTO flow_states (session_id, csrf_state, code_verifier, request_token_secret, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id) DO UPDATE SET
			csrf_state = EXCLUDED.csrf_state,
			code_verifier = EXCLUDED.code_verifier,
			request_token_secret = EXCLUDED.request_token_secret,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at
	`
	_, err := s.db.ExecContext(ctx, query,
		state.SessionID,
		state.CSRFState,
		state.CodeVerifier,
		state.RequestTokenSecret,
		state.CreatedAt,
		state.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("save flow state: %w", err)
	}
	return nil
}

// GetAndDelete atomically retrieves and deletes the session's state.
// Uses DELETE ... RETURNING for atomic single-use semantics.
// Returns nil, nil if the state doesn't exist or has expired.
func (s *FlowStateStore) GetAndDelete(ctx context.Context, sessionID string) (*driven.FlowState, error) {
	query := `
		DELETE FROM flow_states
		WHERE session_id = $1 AND expires_at > NOW()
		RETURNING session_id, csrf_state, code_verifier, request_token_secret, created_at, expires_at
	`

	var state driven.FlowState
	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(
		&state.SessionID,
		&state.CSRFState,
		&state.CodeVerifier,
		&state.RequestTokenSecret,
		&state.CreatedAt,
		&state.ExpiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get and delete flow state: %w", err)
	}
	return &state, nil
}

// Cleanup removes expired states.
func (s *FlowStateStore) Cleanup(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM flow_states WHERE expires_at < NOW()`)
	if err != nil {
		return fmt.Errorf("cleanup flow states: %w", err)
	}
	return nil
}

// Ensure RequestSecretStore implements the interface.
var _ driven.RequestSecretCache = (*RequestSecretStore)(nil)

// RequestSecretStore implements driven.RequestSecretCache using PostgreSQL.
// Fallback backend when Redis is not configured.
type RequestSecretStore struct {
	db *DB
}

// NewRequestSecretStore creates a new PostgreSQL-backed request secret cache.
func NewRequestSecretStore(db *DB) *RequestSecretStore {
	return &RequestSecretStore{db: db}
}

// Put stores the secret hash keyed by request token, bounded by the cache TTL.
func (s *RequestSecretStore) Put(ctx context.Context, token, secretHash string) error {
	now := time.Now()
	query := `
		INSERT INTO request_secrets (token, secret_hash, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (token) DO UPDATE SET
			secret_hash = EXCLUDED.secret_hash,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at
	`
	_, err := s.db.ExecContext(ctx, query, token, secretHash, now, now.Add(driven.RequestSecretCacheTTL))
	if err != nil {
		return fmt.Errorf("put request secret: %w", err)
	}
	return nil
}

// Get retrieves the hash for a token without consuming it.
// Returns "", nil if the token is unknown or expired.
func (s *RequestSecretStore) Get(ctx context.Context, token string) (string, error) {
	query := `
		SELECT secret_hash FROM request_secrets
		WHERE token = $1 AND expires_at > NOW()
	`
	var hash string
	err := s.db.QueryRowContext(ctx, query, token).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get request secret: %w", err)
	}
	return hash, nil
}

// Delete removes the entry for a token. Unknown tokens are a no-op.
func (s *RequestSecretStore) Delete(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM request_secrets WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("delete request secret: %w", err)
	}
	return nil
}

// Cleanup removes expired entries.
func (s *RequestSecretStore) Cleanup(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM request_secrets WHERE expires_at < NOW()`)
	if err != nil {
		return fmt.Errorf("cleanup request secrets: %w", err)
	}
	return nil
}
