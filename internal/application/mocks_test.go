package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jcrawford/networth/internal/domain/model"
)

// In-memory fakes for the driven ports, mirroring the adapters' conflict
// semantics closely enough for orchestration tests.

type fakeAccountStore struct {
	mu        sync.Mutex
	accounts  map[string]model.Account // keyed owner|provider|external_id
	upsertErr map[string]error         // keyed external_id
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{
		accounts:  make(map[string]model.Account),
		upsertErr: make(map[string]error),
	}
}

func accountKey(ownerID string, provider model.Provider, externalID string) string {
	return fmt.Sprintf("%s|%s|%s", ownerID, provider, externalID)
}

func (s *fakeAccountStore) Upsert(_ context.Context, a model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.upsertErr[a.ExternalID]; err != nil {
		return err
	}

	key := accountKey(a.OwnerID, a.Provider, a.ExternalID)
	if existing, ok := s.accounts[key]; ok {
		// Conflict path: provider-owned fields move, local fields stay.
		existing.Name = a.Name
		existing.Balance = a.Balance
		existing.LastSyncedAt = a.LastSyncedAt
		existing.Metadata = a.Metadata
		s.accounts[key] = existing
		return nil
	}

	s.accounts[key] = a
	return nil
}

func (s *fakeAccountStore) GetByExternalID(_ context.Context, ownerID string, provider model.Provider, externalID string) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[accountKey(ownerID, provider, externalID)]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (s *fakeAccountStore) ListByOwner(_ context.Context, ownerID string) ([]model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Account
	for _, a := range s.accounts {
		if a.OwnerID == ownerID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeAccountStore) ListIncluded(_ context.Context, ownerID string) ([]model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Account
	for _, a := range s.accounts {
		if a.OwnerID == ownerID && a.IncludeInNetWorth {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeAccountStore) SetIncluded(_ context.Context, id string, included bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, a := range s.accounts {
		if a.ID == id {
			a.IncludeInNetWorth = included
			s.accounts[key] = a
			return nil
		}
	}
	return fmt.Errorf("account %s not found", id)
}

func (s *fakeAccountStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, a := range s.accounts {
		if a.ID == id {
			delete(s.accounts, key)
			return nil
		}
	}
	return fmt.Errorf("account %s not found", id)
}

type fakeTransactionStore struct {
	mu           sync.Mutex
	transactions map[string]model.Transaction // keyed account_id|external_id
	upsertErr    error
}

func newFakeTransactionStore() *fakeTransactionStore {
	return &fakeTransactionStore{transactions: make(map[string]model.Transaction)}
}

func (s *fakeTransactionStore) Upsert(_ context.Context, tx model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.upsertErr != nil {
		return s.upsertErr
	}

	key := tx.AccountID + "|" + tx.ExternalID
	if existing, ok := s.transactions[key]; ok {
		tx.ID = existing.ID
		tx.LabelID = existing.LabelID
	}
	s.transactions[key] = tx
	return nil
}

func (s *fakeTransactionStore) GetByExternalID(_ context.Context, accountID, externalID string) (*model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[accountID+"|"+externalID]
	if !ok {
		return nil, nil
	}
	return &tx, nil
}

func (s *fakeTransactionStore) ListByAccount(_ context.Context, accountID string) ([]model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Transaction
	for _, tx := range s.transactions {
		if tx.AccountID == accountID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (s *fakeTransactionStore) SetLabel(_ context.Context, id string, labelID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, tx := range s.transactions {
		if tx.ID == id {
			tx.LabelID = labelID
			s.transactions[key] = tx
			return nil
		}
	}
	return fmt.Errorf("transaction %s not found", id)
}

type fakeSnapshotStore struct {
	mu        sync.Mutex
	snapshots []model.Snapshot
	insertErr error
}

func newFakeSnapshotStore() *fakeSnapshotStore {
	return &fakeSnapshotStore{}
}

func (s *fakeSnapshotStore) Insert(_ context.Context, snap model.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.insertErr != nil {
		return s.insertErr
	}
	s.snapshots = append(s.snapshots, snap)
	return nil
}

func (s *fakeSnapshotStore) QueryRange(_ context.Context, accountIDs []string, start, end *time.Time) ([]model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[string]bool, len(accountIDs))
	for _, id := range accountIDs {
		wanted[id] = true
	}

	var out []model.Snapshot
	for _, snap := range s.snapshots {
		if !wanted[snap.AccountID] {
			continue
		}
		if start != nil && snap.CreatedAt.Before(*start) {
			continue
		}
		if end != nil && snap.CreatedAt.After(*end) {
			continue
		}
		out = append(out, snap)
	}

	// Callers rely on ascending created_at order.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].CreatedAt.Before(out[j-1].CreatedAt); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}

	return out, nil
}

type fakeCredentialStore struct {
	mu          sync.Mutex
	credentials map[string]string // keyed owner|provider
	getErr      error
}

func newFakeCredentialStore() *fakeCredentialStore {
	return &fakeCredentialStore{credentials: make(map[string]string)}
}

func (s *fakeCredentialStore) Set(_ context.Context, ownerID string, provider model.Provider, plaintext string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials[ownerID+"|"+string(provider)] = plaintext
	return nil
}

func (s *fakeCredentialStore) Get(_ context.Context, ownerID string, provider model.Provider) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", s.getErr
	}
	return s.credentials[ownerID+"|"+string(provider)], nil
}

func (s *fakeCredentialStore) Delete(_ context.Context, ownerID string, provider model.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.credentials, ownerID+"|"+string(provider))
	return nil
}

type fakeProviderClient struct {
	mu       sync.Mutex
	provider model.Provider
	data     *model.RemoteData
	err      error
	fetches  []model.FetchWindow
	creds    []string
}

func (c *fakeProviderClient) Provider() model.Provider {
	return c.provider
}

func (c *fakeProviderClient) FetchRemote(_ context.Context, credential string, window model.FetchWindow) (*model.RemoteData, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.fetches = append(c.fetches, window)
	c.creds = append(c.creds, credential)
	if c.err != nil {
		return nil, c.err
	}
	return c.data, nil
}

func (c *fakeProviderClient) fetchCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.fetches)
}

type fakeIdentity struct {
	ownerID string
	err     error
}

func (r *fakeIdentity) CurrentOwnerID(context.Context) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return r.ownerID, nil
}

var errBoom = errors.New("boom")
