package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jcrawford/networth/internal/domain/model"
	"github.com/jcrawford/networth/internal/domain/port/driven"
)

// defaultWindow bounds how far back transactions are pulled on each sync.
const defaultWindow = 90 * 24 * time.Hour

// refreshRequest represents a manual sync trigger for one provider.
type refreshRequest struct {
	provider model.Provider
	done     chan model.SyncResult
}

// SyncService orchestrates provider syncs: credential resolution, remote
// fetch through the provider adapters, and reconciliation into storage.
type SyncService struct {
	clients     map[model.Provider]driven.ProviderClient
	credentials driven.CredentialStore
	reconciler  *Reconciler
	identity    driven.IdentityResolver
	interval    time.Duration
	window      time.Duration
	refreshCh   chan refreshRequest
	now         func() time.Time
}

// NewSyncService creates a new SyncService. interval governs the periodic
// loop started by Start; syncs triggered through SyncProvider and SyncAll
// run immediately regardless.
func NewSyncService(
	clients []driven.ProviderClient,
	credentials driven.CredentialStore,
	reconciler *Reconciler,
	identity driven.IdentityResolver,
	interval time.Duration,
) *SyncService {
	byProvider := make(map[model.Provider]driven.ProviderClient, len(clients))
	for _, c := range clients {
		byProvider[c.Provider()] = c
	}

	return &SyncService{
		clients:     byProvider,
		credentials: credentials,
		reconciler:  reconciler,
		identity:    identity,
		interval:    interval,
		window:      defaultWindow,
		refreshCh:   make(chan refreshRequest),
		now:         time.Now,
	}
}

// Start begins the periodic sync loop. It runs an immediate full sync, then
// syncs on the configured interval, and serves manual refresh requests in
// between. Start blocks until the context is canceled. Sync failures are
// logged; the loop never dies.
func (s *SyncService) Start(ctx context.Context) {
	s.syncAllForCurrentOwner(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("sync service stopped")
			return
		case <-ticker.C:
			s.syncAllForCurrentOwner(ctx)
		case req := <-s.refreshCh:
			req.done <- s.refreshForCurrentOwner(ctx, req.provider)
		}
	}
}

// Refresh triggers a manual sync of one provider through the Start loop,
// bypassing the interval. It blocks until the sync completes or the context
// is canceled.
func (s *SyncService) Refresh(ctx context.Context, provider model.Provider) (model.SyncResult, error) {
	done := make(chan model.SyncResult, 1)

	select {
	case s.refreshCh <- refreshRequest{provider: provider, done: done}:
	case <-ctx.Done():
		return model.SyncResult{}, ctx.Err()
	}

	select {
	case result := <-done:
		return result, nil
	case <-ctx.Done():
		return model.SyncResult{}, ctx.Err()
	}
}

// SyncAll syncs every registered provider concurrently. One provider's
// failure never hides another's success; TotalSynced sums only the
// succeeding providers' account counts.
func (s *SyncService) SyncAll(ctx context.Context, ownerID string) model.SyncAllResult {
	providers := make([]model.Provider, 0, len(s.clients))
	for _, p := range model.AllProviders {
		if _, ok := s.clients[p]; ok {
			providers = append(providers, p)
		}
	}

	results := make([]model.SyncResult, len(providers))
	var wg sync.WaitGroup
	for i, p := range providers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = s.SyncProvider(ctx, ownerID, p, "")
		}()
	}
	wg.Wait()

	var all model.SyncAllResult
	all.PerProvider = results
	for _, r := range results {
		if r.OK() {
			all.TotalSynced += r.Synced
		}
	}
	return all
}

// SyncProvider syncs one provider for one owner. credentialOverride, when
// non-empty, is used instead of the stored credential (the connect flow
// syncs immediately with the credential it just obtained). The returned
// result carries actionable user-facing text on failure rather than raw
// error detail.
func (s *SyncService) SyncProvider(ctx context.Context, ownerID string, provider model.Provider, credentialOverride string) model.SyncResult {
	result := model.SyncResult{Provider: provider}

	client, ok := s.clients[provider]
	if !ok {
		result.Error = fmt.Sprintf("Unknown provider %q.", provider)
		return result
	}

	credential := credentialOverride
	if credential == "" {
		stored, err := s.credentials.Get(ctx, ownerID, provider)
		if err != nil {
			slog.Error("credential lookup failed", "provider", provider, "error", err)
			result.Error = "Could not read stored credentials."
			return result
		}
		credential = stored
	}
	if credential == "" {
		result.Error = "No credentials found. Please reconnect your account."
		return result
	}

	end := s.now().UTC()
	window := model.FetchWindow{Start: end.Add(-s.window), End: end}

	data, err := client.FetchRemote(ctx, credential, window)
	if err != nil {
		slog.Error("provider fetch failed", "provider", provider, "error", err)
		result.Error = syncErrorMessage(err)
		return result
	}

	for _, warning := range data.Warnings {
		slog.Warn("provider reported partial error", "provider", provider, "warning", warning)
	}

	synced, err := s.reconciler.Reconcile(ctx, ownerID, provider, data)
	if err != nil {
		result.Error = fmt.Sprintf("Failed to save synced data: %v", err)
		return result
	}

	result.Synced = synced
	return result
}

func (s *SyncService) syncAllForCurrentOwner(ctx context.Context) {
	ownerID, err := s.identity.CurrentOwnerID(ctx)
	if err != nil {
		slog.Error("sync skipped: no resolvable owner", "error", err)
		return
	}

	start := s.now()
	all := s.SyncAll(ctx, ownerID)

	var failures int
	for _, r := range all.PerProvider {
		if !r.OK() {
			failures++
		}
	}

	slog.Info("sync cycle complete",
		"providers", len(all.PerProvider),
		"synced", all.TotalSynced,
		"failures", failures,
		"duration", s.now().Sub(start).Round(time.Millisecond))
}

func (s *SyncService) refreshForCurrentOwner(ctx context.Context, provider model.Provider) model.SyncResult {
	ownerID, err := s.identity.CurrentOwnerID(ctx)
	if err != nil {
		return model.SyncResult{Provider: provider, Error: "Not signed in."}
	}
	return s.SyncProvider(ctx, ownerID, provider, "")
}

// syncErrorMessage maps adapter errors to actionable user-facing text. Only
// unclassified errors pass raw detail through.
func syncErrorMessage(err error) string {
	switch {
	case errors.Is(err, driven.ErrUnauthorized):
		return "Your connection has expired. Please reconnect your account."
	case errors.Is(err, driven.ErrInvalidInput):
		return "The stored connection details are invalid. Please reconnect your account."
	default:
		return fmt.Sprintf("Failed to fetch accounts: %v", err)
	}
}
