// Package api implements the HTTP surface of the server: household and
// session management, receipt capture, and the dashboard, expense, and
// settlement views backed by the ledger.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aferrand/housetab/internal/auth"
	"github.com/aferrand/housetab/internal/config"
	"github.com/aferrand/housetab/internal/middleware"
	"github.com/aferrand/housetab/internal/storage"
	"github.com/aferrand/housetab/internal/vision"
)

// Handler carries the dependencies shared by every endpoint.
type Handler struct {
	store    storage.Store
	tokens   *auth.TokenManager
	analyzer vision.Analyzer

	maxImageBytes int64
	analyzeBurst  int

	// now is swapped out in tests to pin period math to a fixed date.
	now func() time.Time
}

// New creates the API handler.
func New(store storage.Store, tokens *auth.TokenManager, analyzer vision.Analyzer, cfg *config.Config) *Handler {
	return &Handler{
		store:         store,
		tokens:        tokens,
		analyzer:      analyzer,
		maxImageBytes: cfg.MaxImageBytes,
		analyzeBurst:  cfg.AnalyzeBurst,
		now:           time.Now,
	}
}

// Routes builds the API router. Everything except household creation and
// login requires a session token.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/households", h.createHousehold)
	r.Post("/session/login", h.login)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(h.tokens))
		r.Post("/session/logout", h.logout)
		r.Get("/session/me", h.me)
		r.Post("/receipts/analyze", h.analyzeReceipts)
		r.Post("/receipts/manual", h.createManualExpense)
		r.Get("/receipts", h.listReceipts)
		r.Patch("/receipts/{receiptID}/items", h.updateReceiptItems)
		r.Get("/dashboard", h.dashboard)
		r.Get("/expenses", h.expenses)
		r.Post("/settle", h.settle)
	})

	return r
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondStoreError maps storage sentinels onto HTTP statuses and hides
// internal detail from everything else.
func respondStoreError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, storage.ErrAmbiguousHousehold):
		respondError(w, http.StatusConflict, storage.ErrAmbiguousHousehold.Error())
	default:
		slog.Error("storage operation failed", "action", action, "error", err)
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to %s", action))
	}
}

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
