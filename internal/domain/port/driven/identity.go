package driven

import "context"

// IdentityResolver defines the driven port for resolving the authenticated
// owner. Every driving entry point resolves this first; ErrUnauthorized
// short-circuits the operation with no storage or network side effects.
type IdentityResolver interface {
	CurrentOwnerID(ctx context.Context) (string, error)
}
