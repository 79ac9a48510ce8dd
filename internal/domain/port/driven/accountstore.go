package driven

import (
	"context"

	"github.com/jcrawford/networth/internal/domain/model"
)

// AccountStore defines the driven port for account persistence.
//
// Upsert is keyed on (owner, provider, external id). On conflict it must
// overwrite only the provider-owned fields (name, category on first insert,
// balance, metadata, last synced) and preserve the local-only fields
// (hidden, include_in_net_worth) and the original local id.
type AccountStore interface {
	Upsert(ctx context.Context, a model.Account) error
	GetByExternalID(ctx context.Context, ownerID string, provider model.Provider, externalID string) (*model.Account, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Account, error)
	// ListIncluded returns the owner's accounts with include_in_net_worth set,
	// the account set portfolio reconstruction operates on.
	ListIncluded(ctx context.Context, ownerID string) ([]model.Account, error)
	// SetIncluded flips the local-only net-worth inclusion flag.
	SetIncluded(ctx context.Context, id string, included bool) error
	// Delete removes an account (explicit user removal; sync never deletes).
	Delete(ctx context.Context, id string) error
}
