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
var _ driven.TransactionStore = (*TransactionRepo)(nil)

// TransactionRepo is the SQLite implementation of the TransactionStore port interface.
type TransactionRepo struct {
	db *DB
}

// NewTransactionRepo creates a new TransactionRepo backed by the given DB.
func NewTransactionRepo(db *DB) *TransactionRepo {
	return &TransactionRepo{db: db}
}

// Upsert inserts or updates a ledger entry keyed on (account id, external id).
// On conflict the provider-owned columns are overwritten; label_id and the
// original local id are preserved because labels are assigned locally.
func (r *TransactionRepo) Upsert(ctx context.Context, tx model.Transaction) error {
	const query = `
		INSERT INTO transactions (
			id, account_id, external_id, posted_at, amount, description,
			payee, memo, pending, label_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(account_id, external_id) DO UPDATE SET
			posted_at = excluded.posted_at,
			amount = excluded.amount,
			description = excluded.description,
			payee = excluded.payee,
			memo = excluded.memo,
			pending = excluded.pending
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		tx.ID, tx.AccountID, tx.ExternalID, formatTime(tx.PostedAt), tx.Amount.String(),
		tx.Description, tx.Payee, tx.Memo, boolToInt(tx.Pending), tx.LabelID,
	)
	if err != nil {
		return fmt.Errorf("upsert transaction %s/%s: %w", tx.AccountID, tx.ExternalID, err)
	}

	return nil
}

// GetByExternalID retrieves a single transaction by its reconciliation key.
// Returns nil, nil if the transaction does not exist.
func (r *TransactionRepo) GetByExternalID(ctx context.Context, accountID, externalID string) (*model.Transaction, error) {
	const query = transactionSelect + ` WHERE account_id = ? AND external_id = ?`

	tx, err := scanTransaction(r.db.Reader.QueryRowContext(ctx, query, accountID, externalID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction %s/%s: %w", accountID, externalID, err)
	}

	return tx, nil
}

// ListByAccount returns an account's transactions ordered by posted_at descending.
func (r *TransactionRepo) ListByAccount(ctx context.Context, accountID string) ([]model.Transaction, error) {
	const query = transactionSelect + ` WHERE account_id = ? ORDER BY posted_at DESC, external_id`

	rows, err := r.db.Reader.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txs []model.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, *tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return txs, nil
}

// SetLabel assigns or clears the local-only label on a transaction.
func (r *TransactionRepo) SetLabel(ctx context.Context, id string, labelID *string) error {
	const query = `UPDATE transactions SET label_id = ? WHERE id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, labelID, id)
	if err != nil {
		return fmt.Errorf("set transaction %s label: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("transaction %s not found", id)
	}

	return nil
}

const transactionSelect = `
	SELECT id, account_id, external_id, posted_at, amount, description,
	       payee, memo, pending, label_id
	FROM transactions
`

func scanTransaction(s scanner) (*model.Transaction, error) {
	var tx model.Transaction
	var postedAt, amount string
	var pending int

	err := s.Scan(
		&tx.ID, &tx.AccountID, &tx.ExternalID, &postedAt, &amount,
		&tx.Description, &tx.Payee, &tx.Memo, &pending, &tx.LabelID,
	)
	if err != nil {
		return nil, err
	}

	tx.Pending = pending != 0

	tx.PostedAt, err = parseTime(postedAt)
	if err != nil {
		return nil, fmt.Errorf("parse posted_at: %w", err)
	}

	amt, err := parseNullDecimal(&amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	tx.Amount = *amt

	return &tx, nil
}
