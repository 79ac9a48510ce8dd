// Package wallet implements the ProviderClient port for public blockchain
// addresses: native balance via JSON-RPC, token holdings via an indexer, and
// USD valuation via a price feed.
package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"regexp"
	"strings"

	"github.com/gregjones/httpcache"
	"github.com/shopspring/decimal"

	"github.com/jcrawford/networth/internal/domain/model"
	"github.com/jcrawford/networth/internal/domain/port/driven"
	"github.com/jcrawford/networth/internal/fetch"
)

// Compile-time interface satisfaction check.
var _ driven.ProviderClient = (*Client)(nil)

var addressRE = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// weiExponent scales the chain's base unit to whole coins (18 decimals).
const weiExponent = -18

// Client implements the driven.ProviderClient port for wallet addresses.
// Price lookups go through a separate fetcher whose transport caches
// responses (quotes are refetched constantly and upstreams honor ETags).
type Client struct {
	fetch      *fetch.Client
	priceFetch *fetch.Client
	rpcURL     string
	indexURL   string
	priceURL   string
}

// NewClient creates a wallet Client. rpcURL is the JSON-RPC node, indexURL the
// token-holdings indexer (empty disables token holdings), priceURL the USD
// price feed.
func NewClient(f *fetch.Client, rpcURL, indexURL, priceURL string) *Client {
	priceFetch := fetch.NewClient(httpcache.NewMemoryCacheTransport().Client())
	return NewClientWithPriceFetcher(f, priceFetch, rpcURL, indexURL, priceURL)
}

// NewClientWithPriceFetcher creates a Client with an explicit price fetcher.
// This constructor is intended for testing.
func NewClientWithPriceFetcher(f, priceFetch *fetch.Client, rpcURL, indexURL, priceURL string) *Client {
	return &Client{
		fetch:      f,
		priceFetch: priceFetch,
		rpcURL:     strings.TrimSuffix(rpcURL, "/"),
		indexURL:   strings.TrimSuffix(indexURL, "/"),
		priceURL:   strings.TrimSuffix(priceURL, "/"),
	}
}

// Provider returns model.ProviderWallet.
func (c *Client) Provider() model.Provider {
	return model.ProviderWallet
}

// FetchRemote queries the address's native balance and token holdings, then
// values them in USD. A failed price lookup degrades gracefully: the affected
// value fields are nil and the sync still succeeds. The window is ignored;
// wallet providers report holdings, not transactions.
func (c *Client) FetchRemote(ctx context.Context, address string, _ model.FetchWindow) (*model.RemoteData, error) {
	if !addressRE.MatchString(strings.TrimSpace(address)) {
		return nil, fmt.Errorf("%w: %q is not a valid wallet address", driven.ErrInvalidInput, address)
	}
	address = strings.ToLower(strings.TrimSpace(address))

	coinQty, err := c.nativeBalance(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("fetching wallet balance: %w", err)
	}

	holdings, err := c.tokenHoldings(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("fetching token holdings: %w", err)
	}

	coinPrice := c.priceOf(ctx, "ETH")

	total := decimal.Zero
	priced := coinPrice != nil
	if priced {
		total = coinQty.Mul(*coinPrice)
	}

	tokens := make([]model.TokenHolding, 0, len(holdings))
	for _, h := range holdings {
		price := c.priceOf(ctx, h.Symbol)
		tokens = append(tokens, model.TokenHolding{
			Symbol:   h.Symbol,
			Quantity: h.Quantity,
			USDPrice: price,
		})
		if priced && price != nil {
			total = total.Add(h.Quantity.Mul(*price))
		}
	}

	// Without a native-coin quote the account as a whole cannot be valued.
	var balance *decimal.Decimal
	if priced {
		balance = &total
	}

	account := model.RemoteAccount{
		ExternalID: address,
		Name:       "Wallet " + shortAddress(address),
		Category:   "crypto",
		Balance:    balance,
		Metadata: model.Metadata{
			Wallet: &model.WalletMetadata{
				Address: address,
				Tokens:  tokens,
			},
		},
	}

	slog.Debug("wallet fetched",
		"address", shortAddress(address),
		"tokens", len(tokens),
		"valued", priced,
	)

	return &model.RemoteData{
		Accounts:     []model.RemoteAccount{account},
		Transactions: map[string][]model.RemoteTransaction{},
	}, nil
}

// nativeBalance returns the address's native coin quantity via eth_getBalance.
func (c *Client) nativeBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	var hexBalance string
	if err := c.rpcCall(ctx, "eth_getBalance", []any{address, "latest"}, &hexBalance); err != nil {
		return decimal.Zero, err
	}

	wei, ok := new(big.Int).SetString(strings.TrimPrefix(hexBalance, "0x"), 16)
	if !ok {
		return decimal.Zero, fmt.Errorf("node returned malformed balance %q", hexBalance)
	}

	return decimal.NewFromBigInt(wei, weiExponent), nil
}

// holdingJSON is the indexer wire format for one token position.
type holdingJSON struct {
	Symbol   string          `json:"symbol"`
	Quantity decimal.Decimal `json:"quantity"`
}

// tokenHoldings returns the address's token positions from the indexer.
// Returns nil when no indexer is configured.
func (c *Client) tokenHoldings(ctx context.Context, address string) ([]holdingJSON, error) {
	if c.indexURL == "" {
		return nil, nil
	}

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/v1/address/%s/holdings", c.indexURL, address), nil)
	if err != nil {
		return nil, fmt.Errorf("build holdings request: %w", err)
	}

	resp, err := c.fetch.Do(ctx, req, fetch.BulkConfig)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("indexer returned status %d", resp.StatusCode)
	}

	var payload struct {
		Holdings []holdingJSON `json:"holdings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding holdings response: %w", err)
	}

	return payload.Holdings, nil
}

// priceOf returns the USD quote for a symbol, or nil when the lookup fails.
// Price failures are logged and absorbed here so a flaky feed never fails a
// wallet sync.
func (c *Client) priceOf(ctx context.Context, symbol string) *decimal.Decimal {
	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/v1/price?symbol=%s", c.priceURL, symbol), nil)
	if err != nil {
		slog.Warn("price lookup skipped", "symbol", symbol, "error", err)
		return nil
	}

	resp, err := c.priceFetch.Do(ctx, req, fetch.PriceConfig)
	if err != nil {
		slog.Warn("price lookup failed", "symbol", symbol, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("price lookup failed", "symbol", symbol, "status", resp.StatusCode)
		return nil
	}

	var payload struct {
		Symbol string          `json:"symbol"`
		USD    decimal.Decimal `json:"usd"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		slog.Warn("price lookup returned malformed body", "symbol", symbol, "error", err)
		return nil
	}

	return &payload.USD
}

// rpcCall performs one JSON-RPC 2.0 call and decodes result into out.
func (c *Client) rpcCall(ctx context.Context, method string, params []any, out any) error {
	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	if err != nil {
		return fmt.Errorf("marshal rpc request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.fetch.Do(ctx, req, fetch.BulkConfig)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rpc node returned status %d", resp.StatusCode)
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decoding rpc response: %w", err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("rpc error %d: %s", envelope.Error.Code, envelope.Error.Message)
	}

	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("decoding rpc result for %s: %w", method, err)
	}
	return nil
}

// shortAddress renders 0xabcd…1234 for display names.
func shortAddress(address string) string {
	if len(address) < 10 {
		return address
	}
	return address[:6] + "…" + address[len(address)-4:]
}
