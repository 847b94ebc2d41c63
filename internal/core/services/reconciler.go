package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/sentinel-core/internal/core/domain"
	"github.com/custodia-labs/sentinel-core/internal/core/ports/driven"
	"github.com/custodia-labs/sentinel-core/internal/core/ports/driving"
)

// Resolution is the action taken when persisting a verified credential
// collides with a record that already holds part of its identity.
type Resolution int

const (
	// ResolutionInsert writes a fresh record.
	ResolutionInsert Resolution = iota

	// ResolutionRefreshInPlace overwrites the colliding record's token
	// material without touching its history.
	ResolutionRefreshInPlace

	// ResolutionArchiveAndOverwrite archives the colliding record's
	// prior state to history, then overwrites it.
	ResolutionArchiveAndOverwrite

	// ResolutionReject surfaces the collision to the caller.
	ResolutionReject
)

// ResolveOAuth1Conflict maps a violated uniqueness constraint to the
// resolution applied for the 1.0a flow. A token-pair collision means the
// provider re-issued the exact same credential, so the holding record is
// refreshed in place. A provider-account collision means the account moved
// owners, so the holding record is archived and overwritten. Anything else
// is unexpected and rejected.
func ResolveOAuth1Conflict(violated domain.Constraint) Resolution {
	switch violated {
	case domain.ConstraintTokenPair:
		return ResolutionRefreshInPlace
	case domain.ConstraintProviderUserID:
		return ResolutionArchiveAndOverwrite
	default:
		return ResolutionReject
	}
}

// ResolveOAuth2Conflict maps a violated uniqueness constraint to the
// resolution applied for the PKCE flow. The PKCE flow never takes over a
// record keyed to another user; every collision is rejected.
func ResolveOAuth2Conflict(violated domain.Constraint) Resolution {
	return ResolutionReject
}

// oauth1Reconciler persists a verified 1.0a credential, resolving
// collisions with existing records.
type oauth1Reconciler struct {
	store driven.OAuth1CredentialStore
	now   func() time.Time
}

// Reconcile stores the incoming credential and returns the record as
// persisted. The caller's own record, if any, is examined first; residual
// uniqueness violations from other users' records are resolved via
// ResolveOAuth1Conflict.
func (r *oauth1Reconciler) Reconcile(ctx context.Context, incoming *domain.OAuth1Credential) (*domain.OAuth1Credential, error) {
	existing, err := r.store.GetByUser(ctx, incoming.UserEmail)
	if err != nil {
		return nil, &driving.ReconciliationError{Cause: fmt.Errorf("get credential: %w", err)}
	}

	if existing != nil {
		if existing.ProviderUserID != incoming.ProviderUserID {
			// The user authorized a different provider account. The
			// prior account's state is archived before overwriting.
			if err := r.store.ArchiveAndReplace(ctx, existing.UserEmail, incoming); err != nil {
				return nil, r.wrapViolation(err)
			}
		} else {
			if err := r.store.RefreshInPlace(ctx, existing.UserEmail, incoming); err != nil {
				return nil, r.wrapViolation(err)
			}
		}
		return r.reload(ctx, incoming.UserEmail)
	}

	err = r.store.Create(ctx, incoming)
	if err == nil {
		return incoming, nil
	}

	var violation *domain.ConstraintViolationError
	if !errors.As(err, &violation) {
		return nil, &driving.ReconciliationError{Cause: fmt.Errorf("create credential: %w", err)}
	}

	switch ResolveOAuth1Conflict(violation.Constraint) {
	case ResolutionRefreshInPlace:
		// Another user's record holds this exact token pair. The
		// provider re-issued its credential, so that record absorbs
		// the new ownership and material without a history entry.
		holder, err := r.store.GetByTokenPair(ctx, incoming.Token, incoming.TokenSecret)
		if err != nil {
			return nil, &driving.ReconciliationError{Cause: fmt.Errorf("get colliding credential: %w", err)}
		}
		if holder == nil {
			return nil, &driving.ReconciliationError{Cause: fmt.Errorf("token pair collision vanished during reconcile")}
		}
		if err := r.store.RefreshInPlace(ctx, holder.UserEmail, incoming); err != nil {
			return nil, r.wrapViolation(err)
		}
	case ResolutionArchiveAndOverwrite:
		// Another user's record holds this provider account.
		holder, err := r.store.GetByProviderUserID(ctx, incoming.ProviderUserID)
		if err != nil {
			return nil, &driving.ReconciliationError{Cause: fmt.Errorf("get colliding credential: %w", err)}
		}
		if holder == nil {
			return nil, &driving.ReconciliationError{Cause: fmt.Errorf("provider account collision vanished during reconcile")}
		}
		if err := r.store.ArchiveAndReplace(ctx, holder.UserEmail, incoming); err != nil {
			return nil, r.wrapViolation(err)
		}
	default:
		return nil, &driving.ReconciliationError{Cause: violation}
	}

	return r.reload(ctx, incoming.UserEmail)
}

func (r *oauth1Reconciler) reload(ctx context.Context, userEmail string) (*domain.OAuth1Credential, error) {
	cred, err := r.store.GetByUser(ctx, userEmail)
	if err != nil {
		return nil, &driving.ReconciliationError{Cause: fmt.Errorf("reload credential: %w", err)}
	}
	if cred == nil {
		return nil, &driving.ReconciliationError{Cause: fmt.Errorf("credential missing after reconcile")}
	}
	return cred, nil
}

func (r *oauth1Reconciler) wrapViolation(err error) error {
	return &driving.ReconciliationError{Cause: err}
}

// oauth2Reconciler persists a verified PKCE credential. The PKCE flow
// refreshes the caller's own record but never takes over another user's.
type oauth2Reconciler struct {
	store driven.OAuth2CredentialStore
}

// Reconcile stores the incoming credential and returns the record as
// persisted. A provider-account collision with another user's record is an
// integrity failure and is rejected.
func (r *oauth2Reconciler) Reconcile(ctx context.Context, incoming *domain.OAuth2Credential) (*domain.OAuth2Credential, error) {
	existing, err := r.store.GetByUser(ctx, incoming.UserEmail)
	if err != nil {
		return nil, &driving.ReconciliationError{Cause: fmt.Errorf("get credential: %w", err)}
	}

	if existing != nil {
		incoming.CreatedAt = existing.CreatedAt
		if err := r.store.Update(ctx, incoming); err != nil {
			return nil, r.mapViolation(incoming, err)
		}
		return incoming, nil
	}

	if err := r.store.Create(ctx, incoming); err != nil {
		return nil, r.mapViolation(incoming, err)
	}
	return incoming, nil
}

func (r *oauth2Reconciler) mapViolation(incoming *domain.OAuth2Credential, err error) error {
	var violation *domain.ConstraintViolationError
	if errors.As(err, &violation) && violation.Constraint == domain.ConstraintProviderUserID {
		return &driving.IntegrityError{ProviderUserID: incoming.ProviderUserID}
	}
	return &driving.ReconciliationError{Cause: err}
}
