package driven

import (
	"context"

	"github.com/jcrawford/networth/internal/domain/model"
)

// ProviderClient defines the driven port every provider adapter implements.
//
// FetchRemote pulls the provider's current account (and, when supported,
// transaction) data using the given credential and normalizes it. Transient
// network failures are retried inside the adapter's fetch layer before this
// call returns; terminal failures are reported as errors, with
// ErrUnauthorized and ErrInvalidInput wrapped where those causes apply.
// Provider-reported partial errors arrive as RemoteData.Warnings, never as
// a failed call.
type ProviderClient interface {
	Provider() model.Provider
	FetchRemote(ctx context.Context, credential string, window model.FetchWindow) (*model.RemoteData, error)
}

// SetupTokenClaimer exchanges a one-time setup token for the long-lived
// access credential stored by the connect flow. Implemented by providers
// with a claim handshake; returns ErrInvalidInput for malformed tokens and
// ErrUnauthorized for already-claimed ones.
type SetupTokenClaimer interface {
	Claim(ctx context.Context, setupToken string) (string, error)
}
