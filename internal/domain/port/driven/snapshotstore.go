package driven

import (
	"context"
	"time"

	"github.com/jcrawford/networth/internal/domain/model"
)

// SnapshotStore defines the driven port for balance observation persistence.
// Snapshots are append-only; there is no update or delete.
type SnapshotStore interface {
	Insert(ctx context.Context, s model.Snapshot) error
	// QueryRange returns the snapshots for the given accounts inside the
	// optional [start, end] window, ordered ascending by created_at.
	QueryRange(ctx context.Context, accountIDs []string, start, end *time.Time) ([]model.Snapshot, error)
}
