package domain

import "fmt"

// Constraint identifies which uniqueness constraint a credential write
// violated. The conflict resolver maps a constraint to a resolution action.
type Constraint string

const (
	// ConstraintOwner is the one-active-credential-per-owning-user constraint.
	ConstraintOwner Constraint = "owner"

	// ConstraintTokenPair is the (token, token_secret) uniqueness constraint
	// on 1.0a credentials.
	ConstraintTokenPair Constraint = "token_pair"

	// ConstraintProviderUserID is the provider-issued account ID uniqueness
	// constraint.
	ConstraintProviderUserID Constraint = "provider_user_id"

	// ConstraintOther is any other integrity violation.
	ConstraintOther Constraint = "other"
)

// ConstraintViolationError is returned by credential stores when a write
// violates a uniqueness constraint. The triggering transaction has already
// been rolled back; no partial writes remain.
type ConstraintViolationError struct {
	Constraint Constraint
	Cause      error
}

func (e *ConstraintViolationError) Error() string {
	return fmt.Sprintf("constraint violation (%s): %v", e.Constraint, e.Cause)
}

func (e *ConstraintViolationError) Unwrap() error {
	return e.Cause
}
