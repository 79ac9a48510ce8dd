package sqlite

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jcrawford/networth/internal/domain/model"
)

// Metadata is stored as a provider-tagged JSON object in the accounts table.
// The wire structs below exist so the domain types stay free of storage tags.

type metadataJSON struct {
	Bridge *bridgeMetaJSON `json:"bridge,omitempty"`
	Wallet *walletMetaJSON `json:"wallet,omitempty"`
}

type bridgeMetaJSON struct {
	OrgName  string `json:"org_name"`
	OrgURL   string `json:"org_url"`
	Currency string `json:"currency"`
}

type walletMetaJSON struct {
	Address string            `json:"address"`
	Tokens  []tokenHoldingJSON `json:"tokens"`
}

type tokenHoldingJSON struct {
	Symbol   string           `json:"symbol"`
	Quantity decimal.Decimal  `json:"quantity"`
	USDPrice *decimal.Decimal `json:"usd_price,omitempty"`
}

func marshalMetadata(m model.Metadata) (string, error) {
	var wire metadataJSON

	if m.Bridge != nil {
		wire.Bridge = &bridgeMetaJSON{
			OrgName:  m.Bridge.OrgName,
			OrgURL:   m.Bridge.OrgURL,
			Currency: m.Bridge.Currency,
		}
	}
	if m.Wallet != nil {
		tokens := make([]tokenHoldingJSON, 0, len(m.Wallet.Tokens))
		for _, t := range m.Wallet.Tokens {
			tokens = append(tokens, tokenHoldingJSON(t))
		}
		wire.Wallet = &walletMetaJSON{Address: m.Wallet.Address, Tokens: tokens}
	}

	data, err := json.Marshal(wire)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalMetadata(s string) (model.Metadata, error) {
	var wire metadataJSON
	if err := json.Unmarshal([]byte(s), &wire); err != nil {
		return model.Metadata{}, fmt.Errorf("metadata %q: %w", s, err)
	}

	var m model.Metadata
	if wire.Bridge != nil {
		m.Bridge = &model.BridgeMetadata{
			OrgName:  wire.Bridge.OrgName,
			OrgURL:   wire.Bridge.OrgURL,
			Currency: wire.Bridge.Currency,
		}
	}
	if wire.Wallet != nil {
		tokens := make([]model.TokenHolding, 0, len(wire.Wallet.Tokens))
		for _, t := range wire.Wallet.Tokens {
			tokens = append(tokens, model.TokenHolding(t))
		}
		m.Wallet = &model.WalletMetadata{Address: wire.Wallet.Address, Tokens: tokens}
	}

	return m, nil
}
