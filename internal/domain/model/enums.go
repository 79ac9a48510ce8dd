package model

// Provider identifies an external financial data source.
type Provider string

const (
	// ProviderBridge is the bank-aggregation bridge protocol (token claim +
	// Basic-auth account/transaction pulls).
	ProviderBridge Provider = "bridge"
	// ProviderWallet is the blockchain wallet provider (RPC balance/holdings
	// plus a USD price feed).
	ProviderWallet Provider = "wallet"
)

// AllProviders lists every configured provider in a stable order.
var AllProviders = []Provider{ProviderBridge, ProviderWallet}

// Valid reports whether p is a known provider.
func (p Provider) Valid() bool {
	switch p {
	case ProviderBridge, ProviderWallet:
		return true
	}
	return false
}
