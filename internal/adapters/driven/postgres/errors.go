package postgres

import (
	"errors"

	"github.com/lib/pq"

	"github.com/custodia-labs/sentinel-core/internal/core/domain"
)

// uniqueViolation is the PostgreSQL error code for unique_violation.
const uniqueViolation = "23505"

// mapConstraint translates a lib/pq unique violation into a
// *domain.ConstraintViolationError naming the violated constraint.
// Non-violation errors pass through unchanged.
func mapConstraint(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || string(pqErr.Code) != uniqueViolation {
		return err
	}

	var constraint domain.Constraint
	switch pqErr.Constraint {
	case "oauth1_credentials_pkey", "oauth2_credentials_pkey":
		constraint = domain.ConstraintOwner
	case "oauth1_credentials_token_pair_key":
		constraint = domain.ConstraintTokenPair
	case "oauth1_credentials_provider_user_id_key", "oauth2_credentials_provider_user_id_key":
		constraint = domain.ConstraintProviderUserID
	default:
		constraint = domain.ConstraintOther
	}

	return &domain.ConstraintViolationError{Constraint: constraint, Cause: err}
}
