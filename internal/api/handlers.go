package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/Veraticus/the-ledger-must-balance/internal/mutation"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) handleCreateRecurrence(w http.ResponseWriter, r *http.Request) {
	var req recurrenceRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := req.model()
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.svc.CreateRecurrence(r.Context(), rec)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, processResponse(result))
}

func (h *Handler) handleProcessRecurrence(w http.ResponseWriter, r *http.Request) {
	horizon := h.svc.HorizonMonths()
	if v := r.URL.Query().Get("horizon"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, r, common.InvalidInput("horizon must be an integer, got %q", v))
			return
		}
		horizon = n
	}

	result, err := h.svc.ProcessRecurrence(r.Context(), chi.URLParam(r, "id"), horizon)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, processResponse(result))
}

func (h *Handler) handleCreateInstallments(w http.ResponseWriter, r *http.Request) {
	var req installmentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	purchase, err := req.purchase()
	if err != nil {
		writeError(w, r, err)
		return
	}

	group, occs, err := h.svc.CreateInstallmentPurchase(r.Context(), purchase)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"group_id":           group.ID,
		"installment_amount": group.InstallmentAmount,
		"total_amount":       group.TotalAmount,
		"occurrences":        occurrencesResponse(occs),
	})
}

func (h *Handler) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	occ, err := req.model()
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.svc.CreateTransaction(r.Context(), occ); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, occurrenceResponse(*occ))
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ConfirmOccurrence(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func scopeParam(r *http.Request) (mutation.Scope, error) {
	v := r.URL.Query().Get("scope")
	if v == "" {
		return mutation.ScopeThisOnly, nil
	}
	return mutation.ParseScope(v)
}

func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request) {
	scope, err := scopeParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req editRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	changes := mutation.Changes{
		Amount:      req.Amount,
		Description: req.Description,
		CategoryID:  req.CategoryID,
	}
	if req.DueDate != nil {
		due, err := parseDay(*req.DueDate, "due_date")
		if err != nil {
			writeError(w, r, err)
			return
		}
		changes.DueDate = &due
	}

	decision, err := h.svc.EditOccurrence(r.Context(), chi.URLParam(r, "id"), changes, scope)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"decision": decision.String()})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	scope, err := scopeParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	decision, err := h.svc.DeleteOccurrence(r.Context(), chi.URLParam(r, "id"), scope)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"decision": decision.String()})
}

func (h *Handler) handleInvoice(w http.ResponseWriter, r *http.Request) {
	month, err := time.ParseInLocation("2006-01", chi.URLParam(r, "month"), time.UTC)
	if err != nil {
		writeError(w, r, common.InvalidInput("month must be YYYY-MM, got %q", chi.URLParam(r, "month")))
		return
	}

	summary, err := h.svc.Invoice(r.Context(), chi.URLParam(r, "id"), month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, invoiceResponse(summary))
}

func (h *Handler) handlePayInvoice(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.PayInvoice(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
