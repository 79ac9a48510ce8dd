package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a financial holding tracked locally. It is created on the first
// successful sync of a previously-unseen external id and its provider-owned
// fields are overwritten on every subsequent sync. Sync never deletes an
// account; only explicit user removal does.
type Account struct {
	ID         string // Opaque stable local id (UUID).
	OwnerID    string
	Provider   Provider
	ExternalID string // Provider-native identifier; unique per (owner, provider).
	Name       string
	Category   string
	Balance    *decimal.Decimal // nil when the provider could not value the account.
	LastSyncedAt *time.Time

	// Local-only fields, never touched by sync.
	IncludeInNetWorth bool
	Hidden            bool

	Metadata Metadata
}

// BalanceChanged reports whether the freshly observed balance differs from the
// account's stored balance. A nil on either side counts as different unless
// both are nil; equal decimals compare exactly, with no epsilon.
func (a Account) BalanceChanged(observed *decimal.Decimal) bool {
	switch {
	case a.Balance == nil && observed == nil:
		return false
	case a.Balance == nil || observed == nil:
		return true
	default:
		return !a.Balance.Equal(*observed)
	}
}
