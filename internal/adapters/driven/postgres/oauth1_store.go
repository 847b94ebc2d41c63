package postgres

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/custodia-labs/sentinel-core/internal/core/domain"
	"github.com/custodia-labs/sentinel-core/internal/core/ports/driven"
)

// Ensure OAuth1Store implements the interface.
var _ driven.OAuth1CredentialStore = (*OAuth1Store)(nil)

// OAuth1Store implements driven.OAuth1CredentialStore using PostgreSQL.
// Token secrets are stored as encrypted blobs plus a deterministic SHA-256
// fingerprint, so the token-pair uniqueness constraint holds without a
// cleartext secret column.
type OAuth1Store struct {
	db        *DB
	encryptor *SecretEncryptor
}

// NewOAuth1Store creates a new PostgreSQL-backed 1.0a credential store.
func NewOAuth1Store(db *DB, encryptor *SecretEncryptor) *OAuth1Store {
	return &OAuth1Store{db: db, encryptor: encryptor}
}

// secretFingerprint is the hex SHA-256 of a token secret. Deterministic, so
// it can carry a uniqueness constraint; one-way, so it reveals nothing.
func secretFingerprint(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// Create inserts a new credential. Unique violations surface as
// *domain.ConstraintViolationError.
func (s *OAuth1Store) Create(ctx context.Context, cred *domain.OAuth1Credential) error {
	blob, err := s.encryptor.EncryptString(cred.TokenSecret)
	if err != nil {
		return fmt.Errorf("encrypt token secret: %w", err)
	}

	query := `
		INSERT INTO oauth1_credentials (
			user_email, provider_user_id, display_name, token,
			secret_blob, token_secret_sha, verifier, created_at, last_refreshed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = s.db.ExecContext(ctx, query,
		cred.UserEmail,
		cred.ProviderUserID,
		cred.DisplayName,
		cred.Token,
		blob,
		secretFingerprint(cred.TokenSecret),
		cred.Verifier,
		cred.CreatedAt,
		cred.LastRefreshedAt,
	)
	if err != nil {
		return mapConstraint(err)
	}
	return nil
}

// GetByUser retrieves the active credential for an owning user, history
// included. Returns nil, nil if the user has no credential.
func (s *OAuth1Store) GetByUser(ctx context.Context, userEmail string) (*domain.OAuth1Credential, error) {
	return s.getOne(ctx, `WHERE user_email = $1`, userEmail)
}

// GetByProviderUserID retrieves the active credential holding the given
// provider account ID. Returns nil, nil if none exists.
func (s *OAuth1Store) GetByProviderUserID(ctx context.Context, providerUserID string) (*domain.OAuth1Credential, error) {
	return s.getOne(ctx, `WHERE provider_user_id = $1`, providerUserID)
}

// GetByTokenPair retrieves the active credential holding the given token
// pair, matching the secret by fingerprint. Returns nil, nil if none exists.
func (s *OAuth1Store) GetByTokenPair(ctx context.Context, token, tokenSecret string) (*domain.OAuth1Credential, error) {
	return s.getOne(ctx, `WHERE token = $1 AND token_secret_sha = $2`, token, secretFingerprint(tokenSecret))
}

func (s *OAuth1Store) getOne(ctx context.Context, where string, args ...any) (*domain.OAuth1Credential, error) {
	query := `
		SELECT user_email, provider_user_id, display_name, token,
		       secret_blob, verifier, created_at, last_refreshed_at
		FROM oauth1_credentials ` + where

	var cred domain.OAuth1Credential
	var blob []byte
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&cred.UserEmail,
		&cred.ProviderUserID,
		&cred.DisplayName,
		&cred.Token,
		&blob,
		&cred.Verifier,
		&cred.CreatedAt,
		&cred.LastRefreshedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get oauth1 credential: %w", err)
	}

	cred.TokenSecret, err = s.encryptor.DecryptString(blob)
	if err != nil {
		return nil, fmt.Errorf("decrypt token secret: %w", err)
	}

	if cred.History, err = s.loadHistory(ctx, cred.UserEmail); err != nil {
		return nil, err
	}
	return &cred, nil
}

func (s *OAuth1Store) loadHistory(ctx context.Context, userEmail string) ([]domain.AccountSnapshot, error) {
	query := `
		SELECT provider_user_id, display_name, token, secret_blob,
		       verifier, created_at, archived_at
		FROM oauth1_credential_history
		WHERE user_email = $1
		ORDER BY position ASC
	`
	rows, err := s.db.QueryContext(ctx, query, userEmail)
	if err != nil {
		return nil, fmt.Errorf("load credential history: %w", err)
	}
	defer rows.Close()

	var history []domain.AccountSnapshot
	for rows.Next() {
		var snap domain.AccountSnapshot
		var blob []byte
		if err := rows.Scan(
			&snap.ProviderUserID,
			&snap.DisplayName,
			&snap.Token,
			&blob,
			&snap.Verifier,
			&snap.CreatedAt,
			&snap.ArchivedAt,
		); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		if snap.TokenSecret, err = s.encryptor.DecryptString(blob); err != nil {
			return nil, fmt.Errorf("decrypt archived secret: %w", err)
		}
		history = append(history, snap)
	}
	return history, rows.Err()
}

// RefreshInPlace overwrites the record's owner, provider account, display
// name, verifier, and token material without touching history. History rows
// follow the record through an ownership change via FK cascade.
func (s *OAuth1Store) RefreshInPlace(ctx context.Context, userEmail string, cred *domain.OAuth1Credential) error {
	blob, err := s.encryptor.EncryptString(cred.TokenSecret)
	if err != nil {
		return fmt.Errorf("encrypt token secret: %w", err)
	}

	query := `
		UPDATE oauth1_credentials SET
			user_email = $1,
			provider_user_id = $2,
			display_name = $3,
			token = $4,
			secret_blob = $5,
			token_secret_sha = $6,
			verifier = $7,
			last_refreshed_at = $8
		WHERE user_email = $9
	`
	result, err := s.db.ExecContext(ctx, query,
		cred.UserEmail,
		cred.ProviderUserID,
		cred.DisplayName,
		cred.Token,
		blob,
		secretFingerprint(cred.TokenSecret),
		cred.Verifier,
		cred.LastRefreshedAt,
		userEmail,
	)
	if err != nil {
		return mapConstraint(err)
	}
	return requireRow(result)
}

// ArchiveAndReplace appends the record's prior state to history when the
// provider account changed, then overwrites all fields. Both writes commit
// in one transaction.
func (s *OAuth1Store) ArchiveAndReplace(ctx context.Context, userEmail string, cred *domain.OAuth1Credential) error {
	newBlob, err := s.encryptor.EncryptString(cred.TokenSecret)
	if err != nil {
		return fmt.Errorf("encrypt token secret: %w", err)
	}

	err = s.db.Transaction(ctx, func(tx *sql.Tx) error {
		var prior struct {
			providerUserID string
			displayName    string
			token          string
			blob           []byte
			verifier       string
			createdAt      time.Time
		}
		err := tx.QueryRowContext(ctx, `
			SELECT provider_user_id, display_name, token, secret_blob, verifier, created_at
			FROM oauth1_credentials
			WHERE user_email = $1
			FOR UPDATE
		`, userEmail).Scan(
			&prior.providerUserID,
			&prior.displayName,
			&prior.token,
			&prior.blob,
			&prior.verifier,
			&prior.createdAt,
		)
		if err == sql.ErrNoRows {
			return domain.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock credential: %w", err)
		}

		if prior.providerUserID != cred.ProviderUserID {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO oauth1_credential_history (
					user_email, position, provider_user_id, display_name,
					token, secret_blob, verifier, created_at, archived_at
				)
				SELECT $1, COALESCE(MAX(position), -1) + 1, $2, $3, $4, $5, $6, $7, $8
				FROM oauth1_credential_history
				WHERE user_email = $1
			`, userEmail, prior.providerUserID, prior.displayName,
				prior.token, prior.blob, prior.verifier, prior.createdAt, time.Now())
			if err != nil {
				return fmt.Errorf("archive credential: %w", err)
			}
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE oauth1_credentials SET
				user_email = $1,
				provider_user_id = $2,
				display_name = $3,
				token = $4,
				secret_blob = $5,
				token_secret_sha = $6,
				verifier = $7,
				last_refreshed_at = $8
			WHERE user_email = $9
		`, cred.UserEmail, cred.ProviderUserID, cred.DisplayName, cred.Token,
			newBlob, secretFingerprint(cred.TokenSecret), cred.Verifier,
			cred.LastRefreshedAt, userEmail)
		if err != nil {
			return fmt.Errorf("replace credential: %w", err)
		}
		return nil
	})
	if err != nil {
		return mapConstraint(err)
	}
	return nil
}

// requireRow converts a zero-row update into domain.ErrNotFound.
func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
