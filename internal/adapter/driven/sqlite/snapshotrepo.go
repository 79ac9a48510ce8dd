package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jcrawford/networth/internal/domain/model"
	"github.com/jcrawford/networth/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SnapshotStore = (*SnapshotRepo)(nil)

// SnapshotRepo is the SQLite implementation of the SnapshotStore port
// interface. Snapshots are append-only; the repo deliberately has no update
// or delete method.
type SnapshotRepo struct {
	db *DB
}

// NewSnapshotRepo creates a new SnapshotRepo backed by the given DB.
func NewSnapshotRepo(db *DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

// Insert appends one balance observation.
func (r *SnapshotRepo) Insert(ctx context.Context, s model.Snapshot) error {
	const query = `INSERT INTO snapshots (id, account_id, created_at, value) VALUES (?, ?, ?, ?)`

	_, err := r.db.Writer.ExecContext(ctx, query,
		s.ID, s.AccountID, formatTime(s.CreatedAt), s.Value.String(),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot for account %s: %w", s.AccountID, err)
	}

	return nil
}

// QueryRange returns the snapshots for the given accounts inside the optional
// [start, end] window, ordered ascending by created_at. An empty account set
// returns an empty result without touching the database.
func (r *SnapshotRepo) QueryRange(ctx context.Context, accountIDs []string, start, end *time.Time) ([]model.Snapshot, error) {
	if len(accountIDs) == 0 {
		return []model.Snapshot{}, nil
	}

	placeholders := strings.Repeat("?,", len(accountIDs))
	placeholders = placeholders[:len(placeholders)-1]

	query := fmt.Sprintf(`
		SELECT id, account_id, created_at, value
		FROM snapshots
		WHERE account_id IN (%s)
	`, placeholders)

	args := make([]any, 0, len(accountIDs)+2)
	for _, id := range accountIDs {
		args = append(args, id)
	}

	if start != nil {
		query += ` AND created_at >= ?`
		args = append(args, formatTime(*start))
	}
	if end != nil {
		query += ` AND created_at <= ?`
		args = append(args, formatTime(*end))
	}

	query += ` ORDER BY created_at ASC, id`

	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []model.Snapshot
	for rows.Next() {
		var s model.Snapshot
		var createdAt, value string

		if err := rows.Scan(&s.ID, &s.AccountID, &createdAt, &value); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}

		s.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}

		v, err := parseNullDecimal(&value)
		if err != nil {
			return nil, fmt.Errorf("parse value: %w", err)
		}
		s.Value = *v

		snapshots = append(snapshots, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}

	return snapshots, nil
}
