package driven

import (
	"context"

	"github.com/jcrawford/networth/internal/domain/model"
)

// CredentialStore defines the driven port for encrypted credential
// persistence. The adapter layer owns encryption/decryption; this interface
// operates on plaintext values at the domain boundary.
type CredentialStore interface {
	// Set stores or replaces the credential for (owner, provider). Returns
	// ErrEncryptionKeyNotSet if the adapter was built without a key.
	Set(ctx context.Context, ownerID string, provider model.Provider, plaintext string) error

	// Get retrieves the plaintext credential for (owner, provider).
	// Returns ("", nil) if none is stored.
	Get(ctx context.Context, ownerID string, provider model.Provider) (string, error)

	// Delete removes the credential for (owner, provider).
	Delete(ctx context.Context, ownerID string, provider model.Provider) error
}
