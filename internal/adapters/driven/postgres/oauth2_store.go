package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/custodia-labs/sentinel-core/internal/core/domain"
	"github.com/custodia-labs/sentinel-core/internal/core/ports/driven"
)

// Ensure OAuth2Store implements the interface.
var _ driven.OAuth2CredentialStore = (*OAuth2Store)(nil)

// oauth2Secrets is the encrypted portion of a PKCE credential record.
type oauth2Secrets struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	CodeVerifier string `json:"code_verifier"`
}

// OAuth2Store implements driven.OAuth2CredentialStore using PostgreSQL.
type OAuth2Store struct {
	db        *DB
	encryptor *SecretEncryptor
}

// NewOAuth2Store creates a new PostgreSQL-backed PKCE credential store.
func NewOAuth2Store(db *DB, encryptor *SecretEncryptor) *OAuth2Store {
	return &OAuth2Store{db: db, encryptor: encryptor}
}

// Create inserts a new credential. Unique violations surface as
// *domain.ConstraintViolationError.
func (s *OAuth2Store) Create(ctx context.Context, cred *domain.OAuth2Credential) error {
	blob, err := s.encryptor.Encrypt(oauth2Secrets{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		CodeVerifier: cred.CodeVerifier,
	})
	if err != nil {
		return fmt.Errorf("encrypt credential secrets: %w", err)
	}

	query := `
		INSERT INTO oauth2_credentials (
			user_email, provider_user_id, display_name, secret_blob,
			state, code_challenge, code_challenge_method, expires_in,
			created_at, last_refreshed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = s.db.ExecContext(ctx, query,
		cred.UserEmail,
		cred.ProviderUserID,
		cred.DisplayName,
		blob,
		cred.State,
		cred.CodeChallenge,
		cred.CodeChallengeMethod,
		cred.AccessTokenExpiresIn,
		cred.CreatedAt,
		cred.LastRefreshedAt,
	)
	if err != nil {
		return mapConstraint(err)
	}
	return nil
}

// GetByUser retrieves the active credential for an owning user.
// Returns nil, nil if the user has no credential.
func (s *OAuth2Store) GetByUser(ctx context.Context, userEmail string) (*domain.OAuth2Credential, error) {
	query := `
		SELECT user_email, provider_user_id, display_name, secret_blob,
		       state, code_challenge, code_challenge_method, expires_in,
		       created_at, last_refreshed_at
		FROM oauth2_credentials
		WHERE user_email = $1
	`

	var cred domain.OAuth2Credential
	var blob []byte
	err := s.db.QueryRowContext(ctx, query, userEmail).Scan(
		&cred.UserEmail,
		&cred.ProviderUserID,
		&cred.DisplayName,
		&blob,
		&cred.State,
		&cred.CodeChallenge,
		&cred.CodeChallengeMethod,
		&cred.AccessTokenExpiresIn,
		&cred.CreatedAt,
		&cred.LastRefreshedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get oauth2 credential: %w", err)
	}

	var secrets oauth2Secrets
	if err := s.encryptor.Decrypt(blob, &secrets); err != nil {
		return nil, fmt.Errorf("decrypt credential secrets: %w", err)
	}
	cred.AccessToken = secrets.AccessToken
	cred.RefreshToken = secrets.RefreshToken
	cred.CodeVerifier = secrets.CodeVerifier

	return &cred, nil
}

// Update overwrites the user's existing credential in place.
func (s *OAuth2Store) Update(ctx context.Context, cred *domain.OAuth2Credential) error {
	blob, err := s.encryptor.Encrypt(oauth2Secrets{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		CodeVerifier: cred.CodeVerifier,
	})
	if err != nil {
		return fmt.Errorf("encrypt credential secrets: %w", err)
	}

	query := `
		UPDATE oauth2_credentials SET
			provider_user_id = $1,
			display_name = $2,
			secret_blob = $3,
			state = $4,
			code_challenge = $5,
			code_challenge_method = $6,
			expires_in = $7,
			last_refreshed_at = $8
		WHERE user_email = $9
	`
	result, err := s.db.ExecContext(ctx, query,
		cred.ProviderUserID,
		cred.DisplayName,
		blob,
		cred.State,
		cred.CodeChallenge,
		cred.CodeChallengeMethod,
		cred.AccessTokenExpiresIn,
		cred.LastRefreshedAt,
		cred.UserEmail,
	)
	if err != nil {
		return mapConstraint(err)
	}
	return requireRow(result)
}
