package driven

import "errors"

// Sentinel errors shared across ports. Adapters return these (possibly
// wrapped) so the application layer can branch with errors.Is without
// importing adapter packages.
var (
	// ErrUnauthorized means no resolvable identity or a bad/expired provider
	// credential. Never retried; the user must sign in or reconnect.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidInput means a malformed setup token or wallet address.
	// Surfaced before any network call is attempted.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEncryptionKeyNotSet is returned by CredentialStore operations when
	// NETWORTH_SECRET_KEY has not been configured.
	ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set NETWORTH_SECRET_KEY")
)
