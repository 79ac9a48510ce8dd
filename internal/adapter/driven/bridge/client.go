// Package bridge implements the ProviderClient port for the bank-aggregation
// bridge protocol: a one-time setup token is claimed for an access URL, and
// subsequent pulls use HTTP Basic auth derived from that URL.
package bridge

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jcrawford/networth/internal/domain/model"
	"github.com/jcrawford/networth/internal/domain/port/driven"
	"github.com/jcrawford/networth/internal/fetch"
)

// Compile-time interface satisfaction check.
var _ driven.ProviderClient = (*Client)(nil)

// Client implements the driven.ProviderClient port for the bridge protocol.
type Client struct {
	fetch *fetch.Client
}

// NewClient creates a bridge Client routing all calls through the given
// resilient fetcher.
func NewClient(f *fetch.Client) *Client {
	return &Client{fetch: f}
}

// Provider returns model.ProviderBridge.
func (c *Client) Provider() model.Provider {
	return model.ProviderBridge
}

// Claim exchanges a one-time setup token for a durable access URL. The token
// is the base64 encoding of a claim endpoint; POSTing to that endpoint
// consumes the token and returns the access URL to store as the credential.
func (c *Client) Claim(ctx context.Context, setupToken string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(setupToken))
	if err != nil {
		return "", fmt.Errorf("%w: setup token is not valid base64", driven.ErrInvalidInput)
	}

	claimURL := strings.TrimSpace(string(decoded))
	if u, err := url.Parse(claimURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("%w: setup token does not decode to a claim URL", driven.ErrInvalidInput)
	}

	req, err := http.NewRequest(http.MethodPost, claimURL, nil)
	if err != nil {
		return "", fmt.Errorf("build claim request: %w", err)
	}

	resp, err := c.fetch.Do(ctx, req, fetch.ClaimConfig)
	if err != nil {
		return "", fmt.Errorf("claiming access URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized {
		return "", fmt.Errorf("%w: setup token already claimed or expired", driven.ErrUnauthorized)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("claim endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8192))
	if err != nil {
		return "", fmt.Errorf("reading claim response: %w", err)
	}

	accessURL := strings.TrimSpace(string(body))
	if _, _, ok := splitAccessURL(accessURL); !ok {
		return "", fmt.Errorf("claim endpoint returned a malformed access URL")
	}

	return accessURL, nil
}

// FetchRemote pulls the accounts and windowed transactions reachable through
// the given access URL and normalizes them. Provider-reported partial errors
// are surfaced as warnings; the data that did arrive is still returned.
func (c *Client) FetchRemote(ctx context.Context, accessURL string, window model.FetchWindow) (*model.RemoteData, error) {
	base, auth, ok := splitAccessURL(accessURL)
	if !ok {
		return nil, fmt.Errorf("%w: stored access URL is malformed", driven.ErrUnauthorized)
	}

	endpoint := fmt.Sprintf("%s/accounts?start-date=%d&end-date=%d",
		base, window.Start.Unix(), window.End.Unix())

	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build accounts request: %w", err)
	}
	req.SetBasicAuth(auth.user, auth.pass)

	resp, err := c.fetch.Do(ctx, req, fetch.BulkConfig)
	if err != nil {
		return nil, fmt.Errorf("fetching bridge accounts: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: bridge rejected the access credential", driven.ErrUnauthorized)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("bridge returned status %d", resp.StatusCode)
	}

	var payload accountSetJSON
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding bridge response: %w", err)
	}

	data := &model.RemoteData{
		Accounts:     make([]model.RemoteAccount, 0, len(payload.Accounts)),
		Transactions: make(map[string][]model.RemoteTransaction, len(payload.Accounts)),
		Warnings:     payload.Errors,
	}

	for _, acct := range payload.Accounts {
		remote, txs, err := mapAccount(acct)
		if err != nil {
			return nil, fmt.Errorf("decoding bridge account %q: %w", acct.ID, err)
		}
		data.Accounts = append(data.Accounts, remote)
		if len(txs) > 0 {
			data.Transactions[remote.ExternalID] = txs
		}
	}

	slog.Debug("bridge accounts fetched",
		"accounts", len(data.Accounts),
		"warnings", len(data.Warnings),
	)

	return data, nil
}

// accountSetJSON is the bridge wire format for an account-set response.
type accountSetJSON struct {
	Errors   []string      `json:"errors"`
	Accounts []accountJSON `json:"accounts"`
}

type accountJSON struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Currency     string            `json:"currency"`
	Balance      string            `json:"balance"`
	BalanceDate  int64             `json:"balance-date"`
	Org          orgJSON           `json:"org"`
	Transactions []transactionJSON `json:"transactions"`
}

type orgJSON struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type transactionJSON struct {
	ID          string `json:"id"`
	Posted      int64  `json:"posted"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Payee       string `json:"payee"`
	Memo        string `json:"memo"`
	Pending     bool   `json:"pending"`
}

// mapAccount converts a bridge wire account to the normalized remote shapes.
func mapAccount(a accountJSON) (model.RemoteAccount, []model.RemoteTransaction, error) {
	var balance *decimal.Decimal
	if a.Balance != "" {
		b, err := decimal.NewFromString(a.Balance)
		if err != nil {
			return model.RemoteAccount{}, nil, fmt.Errorf("balance %q: %w", a.Balance, err)
		}
		balance = &b
	}

	remote := model.RemoteAccount{
		ExternalID: a.ID,
		Name:       a.Name,
		Category:   "depository",
		Balance:    balance,
		Metadata: model.Metadata{
			Bridge: &model.BridgeMetadata{
				OrgName:  a.Org.Name,
				OrgURL:   a.Org.URL,
				Currency: a.Currency,
			},
		},
	}

	txs := make([]model.RemoteTransaction, 0, len(a.Transactions))
	for _, t := range a.Transactions {
		amount, err := decimal.NewFromString(t.Amount)
		if err != nil {
			return model.RemoteAccount{}, nil, fmt.Errorf("transaction %q amount %q: %w", t.ID, t.Amount, err)
		}
		txs = append(txs, model.RemoteTransaction{
			ExternalID:  t.ID,
			PostedAt:    unixTime(t.Posted),
			Amount:      amount,
			Description: t.Description,
			Payee:       t.Payee,
			Memo:        t.Memo,
			Pending:     t.Pending,
		})
	}

	return remote, txs, nil
}

// basicAuth is the user/pass pair embedded in a bridge access URL.
type basicAuth struct {
	user string
	pass string
}

// splitAccessURL separates an access URL into its base endpoint and the Basic
// auth credentials embedded in its userinfo section.
func splitAccessURL(accessURL string) (string, basicAuth, bool) {
	u, err := url.Parse(strings.TrimSpace(accessURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.User == nil {
		return "", basicAuth{}, false
	}

	pass, _ := u.User.Password()
	auth := basicAuth{user: u.User.Username(), pass: pass}

	u.User = nil
	return strings.TrimSuffix(u.String(), "/"), auth, true
}

// unixTime converts bridge epoch seconds to UTC. Some bridge servers send
// millisecond epochs; values that large are scaled down.
func unixTime(v int64) time.Time {
	if v > 1e12 {
		v /= 1000
	}
	return time.Unix(v, 0).UTC()
}
