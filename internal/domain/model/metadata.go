package model

import "github.com/shopspring/decimal"

// Metadata is the provider-tagged variant of per-account provider data.
// Exactly one arm is non-nil for a synced account; both nil is valid for an
// account that has never synced. Serialization to JSON happens only inside
// the storage adapter.
type Metadata struct {
	Bridge *BridgeMetadata
	Wallet *WalletMetadata
}

// BridgeMetadata carries bridge-protocol account details.
type BridgeMetadata struct {
	OrgName  string
	OrgURL   string
	Currency string
}

// WalletMetadata carries blockchain wallet details, including the token
// holdings observed at the last sync.
type WalletMetadata struct {
	Address string
	Tokens  []TokenHolding
}

// TokenHolding is a single token position in a wallet. USDPrice is nil when
// the price lookup failed or no quote exists for the symbol.
type TokenHolding struct {
	Symbol   string
	Quantity decimal.Decimal
	USDPrice *decimal.Decimal
}
