// Package api exposes the ledger operations over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/Veraticus/the-ledger-must-balance/internal/ledger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handler serves the ledger API.
type Handler struct {
	svc *ledger.Service
}

// NewHandler creates a handler backed by svc.
func NewHandler(svc *ledger.Service) *Handler {
	return &Handler{svc: svc}
}

// Routes builds the router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", h.handleHealth)

	r.Post("/recurrences", h.handleCreateRecurrence)
	r.Post("/recurrences/{id}/process", h.handleProcessRecurrence)
	r.Post("/installments", h.handleCreateInstallments)
	r.Post("/transactions", h.handleCreateTransaction)

	r.Route("/occurrences/{id}", func(r chi.Router) {
		r.Post("/confirm", h.handleConfirm)
		r.Patch("/", h.handleEdit)
		r.Delete("/", h.handleDelete)
	})

	r.Get("/cards/{id}/invoices/{month}", h.handleInvoice)
	r.Post("/invoices/{id}/pay", h.handlePayInvoice)

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		common.LogDebug(r.Context(), "http request", common.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(start),
			"request_id": middleware.GetReqID(r.Context()),
		})
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// statusFor maps ledger errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrConsistencyViolation), errors.Is(err, common.ErrDuplicateEntry):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		common.LogError(r.Context(), err, "request failed", common.Fields{
			"path":       r.URL.Path,
			"request_id": middleware.GetReqID(r.Context()),
		})
		msg = "internal error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return common.InvalidInput("malformed request body: %v", err)
	}
	return nil
}
