package auth

import (
	"context"
	"fmt"
)

// Resolver maps a decoded credential's subject to the live account record.
//
// It must be consulted on every request: accounts can be deactivated or have
// their role changed between credential issuance and expiry, and those
// changes win immediately. The credential's embedded role claim is never
// used for the decision.
type Resolver struct {
	accounts AccountRepository
}

// NewResolver creates a resolver over the given account store.
func NewResolver(accounts AccountRepository) *Resolver {
	return &Resolver{accounts: accounts}
}

// Resolve looks up the account for a credential subject and checks that it
// is active.
//
// Returns ErrAccountNotFound when no record exists for the subject, and
// ErrAccountInactive when the record exists but is deactivated. Otherwise
// the live account is returned, carrying the current stored role rather
// than the role embedded in the credential.
func (r *Resolver) Resolve(ctx context.Context, subjectID string) (*Account, error) {
	account, err := r.accounts.GetByID(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("resolving principal %q: %w", subjectID, err)
	}

	if !account.IsActive {
		return nil, fmt.Errorf("resolving principal %q: %w", subjectID, ErrAccountInactive)
	}

	return account, nil
}
