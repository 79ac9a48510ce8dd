package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is an immutable point-in-time USD balance observation for one
// account. Snapshots are append-only: the engine never updates or deduplicates
// them. At most one is written per sync cycle per account, and only when the
// observed balance differs from the previously stored one.
type Snapshot struct {
	ID        string
	AccountID string
	CreatedAt time.Time
	Value     decimal.Decimal
}
