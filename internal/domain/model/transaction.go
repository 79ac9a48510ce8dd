package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a ledger entry belonging to one Account. Negative amounts are
// debits, positive amounts are credits. (AccountID, ExternalID) identifies at
// most one transaction; repeat syncs overwrite the provider-owned fields and
// leave LabelID untouched because labels are assigned locally.
type Transaction struct {
	ID          string
	AccountID   string
	ExternalID  string
	PostedAt    time.Time
	Amount      decimal.Decimal
	Description string
	Payee       string
	Memo        string
	Pending     bool
	LabelID     *string
}
