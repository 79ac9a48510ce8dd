package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jcrawford/networth/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// SyncResponse is the discriminated JSON outcome of one provider sync.
// Error carries actionable text and is present only on failure.
type SyncResponse struct {
	Success  bool   `json:"success"`
	Provider string `json:"provider"`
	Synced   int    `json:"synced"`
	Error    string `json:"error,omitempty"`
}

// SyncAllResponse aggregates per-provider sync outcomes.
type SyncAllResponse struct {
	TotalSynced int            `json:"total_synced"`
	Providers   []SyncResponse `json:"providers"`
}

// ConnectBridgeRequest is the JSON body for the bridge connect endpoint.
type ConnectBridgeRequest struct {
	SetupToken string `json:"setup_token"`
}

// ConnectWalletRequest is the JSON body for the wallet connect endpoint.
type ConnectWalletRequest struct {
	Address string `json:"address"`
}

// AccountResponse is the JSON representation of an account.
type AccountResponse struct {
	ID                string `json:"id"`
	Provider          string `json:"provider"`
	ExternalID        string `json:"external_id"`
	Name              string `json:"name"`
	Category          string `json:"category"`
	Balance           string `json:"balance,omitempty"`
	LastSyncedAt      string `json:"last_synced_at,omitempty"`
	IncludeInNetWorth bool   `json:"include_in_net_worth"`
	Hidden            bool   `json:"hidden"`
}

// TimePointResponse is one entry of the portfolio history series. Value is a
// decimal string to avoid float rounding at the boundary.
type TimePointResponse struct {
	Timestamp string `json:"timestamp"`
	Value     string `json:"value"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// toSyncResponse converts a domain SyncResult to its JSON representation.
func toSyncResponse(r model.SyncResult) SyncResponse {
	return SyncResponse{
		Success:  r.OK(),
		Provider: string(r.Provider),
		Synced:   r.Synced,
		Error:    r.Error,
	}
}

// toAccountResponse converts a domain Account to its JSON representation.
func toAccountResponse(a model.Account) AccountResponse {
	resp := AccountResponse{
		ID:                a.ID,
		Provider:          string(a.Provider),
		ExternalID:        a.ExternalID,
		Name:              a.Name,
		Category:          a.Category,
		IncludeInNetWorth: a.IncludeInNetWorth,
		Hidden:            a.Hidden,
	}
	if a.Balance != nil {
		resp.Balance = a.Balance.String()
	}
	if a.LastSyncedAt != nil {
		resp.LastSyncedAt = a.LastSyncedAt.UTC().Format(time.RFC3339)
	}
	return resp
}
