// Package httphandler is the HTTP driving adapter that serves the REST API.
package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jcrawford/networth/internal/application"
	"github.com/jcrawford/networth/internal/domain/model"
	"github.com/jcrawford/networth/internal/domain/port/driven"
)

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	accounts   driven.AccountStore
	identity   driven.IdentityResolver
	syncSvc    *application.SyncService
	connectSvc *application.ConnectService
	portfolio  *application.PortfolioService
	logger     *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	accounts driven.AccountStore,
	identity driven.IdentityResolver,
	syncSvc *application.SyncService,
	connectSvc *application.ConnectService,
	portfolio *application.PortfolioService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		accounts:   accounts,
		identity:   identity,
		syncSvc:    syncSvc,
		connectSvc: connectSvc,
		portfolio:  portfolio,
		logger:     logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/sync", h.SyncAll)
	mux.HandleFunc("POST /api/sync/{provider}", h.SyncProvider)
	mux.HandleFunc("POST /api/connect/bridge", h.ConnectBridge)
	mux.HandleFunc("POST /api/connect/wallet", h.ConnectWallet)
	mux.HandleFunc("GET /api/accounts", h.ListAccounts)
	mux.HandleFunc("GET /api/portfolio/history", h.PortfolioHistory)
	mux.HandleFunc("GET /api/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// ownerID resolves the acting owner, writing a 401 when there is none.
// Every handler resolves this before any other side effect.
func (h *Handler) ownerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	ownerID, err := h.identity.CurrentOwnerID(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return "", false
	}
	return ownerID, true
}

// SyncAll syncs every registered provider and reports per-provider outcomes.
func (h *Handler) SyncAll(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	all := h.syncSvc.SyncAll(r.Context(), ownerID)

	resp := SyncAllResponse{
		TotalSynced: all.TotalSynced,
		Providers:   make([]SyncResponse, 0, len(all.PerProvider)),
	}
	for _, result := range all.PerProvider {
		resp.Providers = append(resp.Providers, toSyncResponse(result))
	}

	writeJSON(w, http.StatusOK, resp)
}

// SyncProvider syncs one provider named in the path.
func (h *Handler) SyncProvider(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	provider := model.Provider(r.PathValue("provider"))
	if !provider.Valid() {
		writeError(w, http.StatusBadRequest, "unknown provider")
		return
	}

	result := h.syncSvc.SyncProvider(r.Context(), ownerID, provider, "")
	writeJSON(w, http.StatusOK, toSyncResponse(result))
}

// ConnectBridge claims a setup token, stores the credential, and syncs.
func (h *Handler) ConnectBridge(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	var req ConnectBridgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SetupToken == "" {
		writeError(w, http.StatusBadRequest, "setup_token is required")
		return
	}

	result := h.connectSvc.ConnectBridge(r.Context(), ownerID, req.SetupToken)
	writeJSON(w, http.StatusOK, toSyncResponse(result))
}

// ConnectWallet verifies and stores a wallet address, then syncs.
func (h *Handler) ConnectWallet(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	var req ConnectWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Address == "" {
		writeError(w, http.StatusBadRequest, "address is required")
		return
	}

	result := h.connectSvc.ConnectWallet(r.Context(), ownerID, req.Address)
	writeJSON(w, http.StatusOK, toSyncResponse(result))
}

// ListAccounts returns all of the owner's accounts.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	accounts, err := h.accounts.ListByOwner(r.Context(), ownerID)
	if err != nil {
		h.logger.Error("failed to list accounts", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		resp = append(resp, toAccountResponse(a))
	}

	writeJSON(w, http.StatusOK, resp)
}

// PortfolioHistory returns the reconstructed net-worth series. Query params:
// bucket (hour|day|week|month, default day), start, end (RFC 3339).
func (h *Handler) PortfolioHistory(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	q := application.HistoryQuery{Bucket: model.BucketDay}

	if s := r.URL.Query().Get("bucket"); s != "" {
		bucket, err := model.ParseBucketSize(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		q.Bucket = bucket
	}

	if s := r.URL.Query().Get("start"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start time")
			return
		}
		q.Start = &t
	}

	if s := r.URL.Query().Get("end"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid end time")
			return
		}
		q.End = &t
	}

	points, err := h.portfolio.History(r.Context(), ownerID, q)
	if err != nil {
		if errors.Is(err, driven.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "not signed in")
			return
		}
		h.logger.Error("failed to build portfolio history", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]TimePointResponse, 0, len(points))
	for _, p := range points {
		resp = append(resp, TimePointResponse{
			Timestamp: p.Timestamp.UTC().Format(time.RFC3339),
			Value:     p.Value.String(),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}
