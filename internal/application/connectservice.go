package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jcrawford/networth/internal/domain/model"
	"github.com/jcrawford/networth/internal/domain/port/driven"
)

// ConnectService handles first-time provider connections: credential
// acquisition, storage, and the immediate follow-up sync that runs with the
// fresh credential before it is read back from storage.
type ConnectService struct {
	claimer     driven.SetupTokenClaimer
	credentials driven.CredentialStore
	sync        *SyncService
}

// NewConnectService creates a new ConnectService.
func NewConnectService(claimer driven.SetupTokenClaimer, credentials driven.CredentialStore, sync *SyncService) *ConnectService {
	return &ConnectService{claimer: claimer, credentials: credentials, sync: sync}
}

// ConnectBridge claims a one-time setup token, stores the resulting access
// credential, and syncs immediately with it. The token is consumed by the
// claim even if a later step fails.
func (s *ConnectService) ConnectBridge(ctx context.Context, ownerID, setupToken string) model.SyncResult {
	result := model.SyncResult{Provider: model.ProviderBridge}

	accessURL, err := s.claimer.Claim(ctx, setupToken)
	if err != nil {
		slog.Error("setup token claim failed", "error", err)
		result.Error = claimErrorMessage(err)
		return result
	}

	if err := s.credentials.Set(ctx, ownerID, model.ProviderBridge, accessURL); err != nil {
		slog.Error("credential store failed", "provider", model.ProviderBridge, "error", err)
		result.Error = storeErrorMessage(err)
		return result
	}

	return s.sync.SyncProvider(ctx, ownerID, model.ProviderBridge, accessURL)
}

// ConnectWallet validates a wallet address by syncing with it, then stores
// it as the wallet credential. Nothing is stored when the sync fails, so a
// typo never shadows a previously working address.
func (s *ConnectService) ConnectWallet(ctx context.Context, ownerID, address string) model.SyncResult {
	result := s.sync.SyncProvider(ctx, ownerID, model.ProviderWallet, address)
	if !result.OK() {
		return result
	}

	if err := s.credentials.Set(ctx, ownerID, model.ProviderWallet, address); err != nil {
		slog.Error("credential store failed", "provider", model.ProviderWallet, "error", err)
		result.Error = storeErrorMessage(err)
		result.Synced = 0
	}

	return result
}

func claimErrorMessage(err error) string {
	switch {
	case errors.Is(err, driven.ErrInvalidInput):
		return "That setup token is not valid. Paste the token exactly as issued."
	case errors.Is(err, driven.ErrUnauthorized):
		return "That setup token was already used. Request a new one and try again."
	default:
		return fmt.Sprintf("Failed to claim setup token: %v", err)
	}
}

func storeErrorMessage(err error) string {
	if errors.Is(err, driven.ErrEncryptionKeyNotSet) {
		return "Credential storage is not configured on this server."
	}
	return "Could not store the credential."
}
