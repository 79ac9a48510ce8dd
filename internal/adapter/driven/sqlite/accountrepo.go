package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jcrawford/networth/internal/domain/model"
	"github.com/jcrawford/networth/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AccountStore = (*AccountRepo)(nil)

// AccountRepo is the SQLite implementation of the AccountStore port interface.
type AccountRepo struct {
	db *DB
}

// NewAccountRepo creates a new AccountRepo backed by the given DB.
func NewAccountRepo(db *DB) *AccountRepo {
	return &AccountRepo{db: db}
}

// Upsert inserts or updates an account keyed on (owner, provider, external id).
// On conflict only the provider-owned columns are overwritten; the original
// local id and the local-only columns (category, hidden, include_in_net_worth)
// are preserved.
func (r *AccountRepo) Upsert(ctx context.Context, a model.Account) error {
	const query = `
		INSERT INTO accounts (
			id, owner_id, provider, external_id, name, category, balance,
			last_synced_at, include_in_net_worth, hidden, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id, provider, external_id) DO UPDATE SET
			name = excluded.name,
			balance = excluded.balance,
			last_synced_at = excluded.last_synced_at,
			metadata = excluded.metadata
	`

	metadata, err := marshalMetadata(a.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	var balance *string
	if a.Balance != nil {
		s := a.Balance.String()
		balance = &s
	}

	var lastSynced *string
	if a.LastSyncedAt != nil {
		s := formatTime(*a.LastSyncedAt)
		lastSynced = &s
	}

	_, err = r.db.Writer.ExecContext(ctx, query,
		a.ID, a.OwnerID, string(a.Provider), a.ExternalID, a.Name, a.Category,
		balance, lastSynced, boolToInt(a.IncludeInNetWorth), boolToInt(a.Hidden), metadata,
	)
	if err != nil {
		return fmt.Errorf("upsert account %s/%s: %w", a.Provider, a.ExternalID, err)
	}

	return nil
}

// GetByExternalID retrieves a single account by its reconciliation key.
// Returns nil, nil if the account does not exist.
func (r *AccountRepo) GetByExternalID(ctx context.Context, ownerID string, provider model.Provider, externalID string) (*model.Account, error) {
	const query = accountSelect + ` WHERE owner_id = ? AND provider = ? AND external_id = ?`

	a, err := scanAccount(r.db.Reader.QueryRowContext(ctx, query, ownerID, string(provider), externalID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account %s/%s: %w", provider, externalID, err)
	}

	return a, nil
}

// ListByOwner returns all of an owner's accounts, hidden included, ordered by name.
func (r *AccountRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Account, error) {
	const query = accountSelect + ` WHERE owner_id = ? ORDER BY name, external_id`
	return r.queryAccounts(ctx, query, ownerID)
}

// ListIncluded returns the owner's accounts that count toward net worth.
func (r *AccountRepo) ListIncluded(ctx context.Context, ownerID string) ([]model.Account, error) {
	const query = accountSelect + ` WHERE owner_id = ? AND include_in_net_worth = 1 ORDER BY name, external_id`
	return r.queryAccounts(ctx, query, ownerID)
}

// SetIncluded flips the local-only net-worth inclusion flag.
func (r *AccountRepo) SetIncluded(ctx context.Context, id string, included bool) error {
	const query = `UPDATE accounts SET include_in_net_worth = ? WHERE id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, boolToInt(included), id)
	if err != nil {
		return fmt.Errorf("set account %s inclusion: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("account %s not found", id)
	}

	return nil
}

// Delete removes an account and, via foreign keys, its transactions and
// snapshots. Returns an error if the account does not exist.
func (r *AccountRepo) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM accounts WHERE id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete account %s: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("account %s not found", id)
	}

	return nil
}

const accountSelect = `
	SELECT id, owner_id, provider, external_id, name, category, balance,
	       last_synced_at, include_in_net_worth, hidden, metadata
	FROM accounts
`

func (r *AccountRepo) queryAccounts(ctx context.Context, query string, args ...any) ([]model.Account, error) {
	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}

	return accounts, nil
}

func scanAccount(s scanner) (*model.Account, error) {
	var a model.Account
	var provider string
	var balance, lastSynced *string
	var included, hidden int
	var metadata string

	err := s.Scan(
		&a.ID, &a.OwnerID, &provider, &a.ExternalID, &a.Name, &a.Category,
		&balance, &lastSynced, &included, &hidden, &metadata,
	)
	if err != nil {
		return nil, err
	}

	a.Provider = model.Provider(provider)
	a.IncludeInNetWorth = included != 0
	a.Hidden = hidden != 0

	a.Balance, err = parseNullDecimal(balance)
	if err != nil {
		return nil, fmt.Errorf("parse balance: %w", err)
	}

	if lastSynced != nil {
		t, err := parseTime(*lastSynced)
		if err != nil {
			return nil, fmt.Errorf("parse last_synced_at: %w", err)
		}
		a.LastSyncedAt = &t
	}

	a.Metadata, err = unmarshalMetadata(metadata)
	if err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}

	return &a, nil
}
