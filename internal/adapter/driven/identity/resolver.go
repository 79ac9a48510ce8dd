// Package identity resolves the acting owner for driving entry points.
package identity

import (
	"context"

	"github.com/jcrawford/networth/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.IdentityResolver = (*StaticResolver)(nil)

// StaticResolver resolves every request to a single configured owner. The
// server is single-tenant; multi-user auth would replace this adapter
// without touching the application layer.
type StaticResolver struct {
	ownerID string
}

// NewStaticResolver creates a StaticResolver for the given owner id. An
// empty id resolves nothing and every operation short-circuits with
// driven.ErrUnauthorized.
func NewStaticResolver(ownerID string) *StaticResolver {
	return &StaticResolver{ownerID: ownerID}
}

// CurrentOwnerID returns the configured owner id.
func (r *StaticResolver) CurrentOwnerID(context.Context) (string, error) {
	if r.ownerID == "" {
		return "", driven.ErrUnauthorized
	}
	return r.ownerID, nil
}
