package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RemoteAccount is the normalized shape every provider adapter produces for
// one remote account. ExternalID is the provider's own stable identifier and
// the reconciliation key.
type RemoteAccount struct {
	ExternalID string
	Name       string
	Category   string
	Balance    *decimal.Decimal // USD; nil when the provider could not value it.
	Metadata   Metadata
}

// RemoteTransaction is the normalized shape of one remote ledger entry.
type RemoteTransaction struct {
	ExternalID  string
	PostedAt    time.Time
	Amount      decimal.Decimal
	Description string
	Payee       string
	Memo        string
	Pending     bool
}

// RemoteData is a provider adapter's full fetch result. Transactions are keyed
// by the owning account's external id. Warnings carry provider-reported
// partial errors; the data that did arrive is still reconciled.
type RemoteData struct {
	Accounts     []RemoteAccount
	Transactions map[string][]RemoteTransaction
	Warnings     []string
}

// FetchWindow bounds a transaction pull. The bridge provider is asked only
// for entries posted within [Start, End].
type FetchWindow struct {
	Start time.Time
	End   time.Time
}
