package driven

import (
	"context"

	"github.com/jcrawford/networth/internal/domain/model"
)

// TransactionStore defines the driven port for ledger entry persistence.
//
// Upsert is keyed on (account id, external id). On conflict it must overwrite
// the provider-owned fields (posted_at, amount, description, payee, memo,
// pending) and preserve label_id and the original local id.
type TransactionStore interface {
	Upsert(ctx context.Context, tx model.Transaction) error
	GetByExternalID(ctx context.Context, accountID, externalID string) (*model.Transaction, error)
	ListByAccount(ctx context.Context, accountID string) ([]model.Transaction, error)
	// SetLabel assigns or clears the local-only label on a transaction.
	SetLabel(ctx context.Context, id string, labelID *string) error
}
