package model

import "time"

// Credential holds the per (owner, provider) secret reference needed to
// re-authenticate with a provider: the bridge access URL, or the wallet's
// public address. At most one exists per (owner, provider); reconnecting
// replaces it.
type Credential struct {
	ID        int64
	OwnerID   string
	Provider  Provider
	Value     string
	UpdatedAt time.Time
}
