// Package application contains use-case orchestration services.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jcrawford/networth/internal/domain/model"
	"github.com/jcrawford/networth/internal/domain/port/driven"
)

// Reconciler merges a provider's fetched remote data into local storage:
// idempotent account and transaction upserts keyed on external ids, plus an
// append-only balance snapshot whenever an account's observed balance differs
// from the stored one.
type Reconciler struct {
	accounts     driven.AccountStore
	transactions driven.TransactionStore
	snapshots    driven.SnapshotStore
	now          func() time.Time
}

// NewReconciler creates a new Reconciler with all required stores.
func NewReconciler(
	accounts driven.AccountStore,
	transactions driven.TransactionStore,
	snapshots driven.SnapshotStore,
) *Reconciler {
	return &Reconciler{
		accounts:     accounts,
		transactions: transactions,
		snapshots:    snapshots,
		now:          time.Now,
	}
}

// Reconcile merges remote data for one owner and provider. It returns the
// number of accounts successfully reconciled. A failure on one account is
// logged and skipped so the remaining accounts still land, but when every
// account fails the storage layer itself is down and the pass reports a hard
// error instead of an empty success.
func (r *Reconciler) Reconcile(ctx context.Context, ownerID string, provider model.Provider, data *model.RemoteData) (int, error) {
	start := r.now()
	var synced, failed int

	for _, remote := range data.Accounts {
		if err := ctx.Err(); err != nil {
			return synced, err
		}

		account, err := r.reconcileAccount(ctx, ownerID, provider, remote)
		if err != nil {
			slog.Error("account reconcile failed",
				"provider", provider,
				"external_id", remote.ExternalID,
				"error", err)
			failed++
			continue
		}

		r.reconcileTransactions(ctx, account.ID, data.Transactions[remote.ExternalID])
		synced++
	}

	slog.Info("reconcile complete",
		"provider", provider,
		"synced", synced,
		"failed", failed,
		"duration", r.now().Sub(start).Round(time.Millisecond))

	if synced == 0 && failed > 0 {
		return 0, fmt.Errorf("reconciling %s accounts: all %d failed", provider, failed)
	}

	return synced, nil
}

// reconcileAccount upserts one remote account and records a snapshot when the
// observed balance differs from the stored one. New accounts default to
// counting toward net worth; existing accounts keep their local id and flags
// through the upsert.
func (r *Reconciler) reconcileAccount(ctx context.Context, ownerID string, provider model.Provider, remote model.RemoteAccount) (*model.Account, error) {
	existing, err := r.accounts.GetByExternalID(ctx, ownerID, provider, remote.ExternalID)
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}

	now := r.now().UTC()
	candidate := model.Account{
		ID:                uuid.New().String(),
		OwnerID:           ownerID,
		Provider:          provider,
		ExternalID:        remote.ExternalID,
		Name:              remote.Name,
		Category:          remote.Category,
		Balance:           remote.Balance,
		LastSyncedAt:      &now,
		IncludeInNetWorth: true,
		Metadata:          remote.Metadata,
	}

	// First observation of a valued account counts as a change.
	balanceChanged := remote.Balance != nil
	if existing != nil {
		balanceChanged = existing.BalanceChanged(remote.Balance)
	}

	if err := r.accounts.Upsert(ctx, candidate); err != nil {
		return nil, fmt.Errorf("upsert account: %w", err)
	}

	account, err := r.accounts.GetByExternalID(ctx, ownerID, provider, remote.ExternalID)
	if err != nil {
		return nil, fmt.Errorf("reload account: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("account %s/%s missing after upsert", provider, remote.ExternalID)
	}

	if balanceChanged && remote.Balance != nil {
		snapshot := model.Snapshot{
			ID:        uuid.New().String(),
			AccountID: account.ID,
			CreatedAt: now,
			Value:     *remote.Balance,
		}
		if err := r.snapshots.Insert(ctx, snapshot); err != nil {
			return nil, fmt.Errorf("insert snapshot: %w", err)
		}
	}

	return account, nil
}

// reconcileTransactions upserts an account's remote ledger entries. Each
// failure is logged and skipped.
func (r *Reconciler) reconcileTransactions(ctx context.Context, accountID string, remotes []model.RemoteTransaction) {
	for _, remote := range remotes {
		tx := model.Transaction{
			ID:          uuid.New().String(),
			AccountID:   accountID,
			ExternalID:  remote.ExternalID,
			PostedAt:    remote.PostedAt,
			Amount:      remote.Amount,
			Description: remote.Description,
			Payee:       remote.Payee,
			Memo:        remote.Memo,
			Pending:     remote.Pending,
		}
		if err := r.transactions.Upsert(ctx, tx); err != nil {
			slog.Error("transaction reconcile failed",
				"account_id", accountID,
				"external_id", remote.ExternalID,
				"error", err)
		}
	}
}
