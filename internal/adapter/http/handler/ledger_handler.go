package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fablepress/fulfillment/internal/adapter/http/dto"
	"github.com/fablepress/fulfillment/internal/usecase"
)

// LedgerHandler handles ledger-wide integrity operations. Operator surface.
type LedgerHandler struct {
	reconciliationUC *usecase.ReconciliationUseCase
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(reconciliationUC *usecase.ReconciliationUseCase) *LedgerHandler {
	return &LedgerHandler{reconciliationUC: reconciliationUC}
}

// CheckConsistency verifies balance == sum of entries for every owner.
func (h *LedgerHandler) CheckConsistency(w http.ResponseWriter, r *http.Request) {
	mismatches, err := h.reconciliationUC.CheckLedgerConsistency(r.Context())
	if err != nil {
		if errors.Is(err, usecase.ErrInconsistentLedger) {
			writeJSON(w, http.StatusConflict, map[string]any{
				"status":     "inconsistent",
				"consistent": false,
				"mismatches": dto.MismatchesFromUseCase(mismatches),
			})
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to check consistency", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "consistent",
		"consistent": true,
	})
}

// ReconcileOwner verifies one owner's projection against their entries.
func (h *LedgerHandler) ReconcileOwner(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerID")
	if ownerID == "" {
		writeError(w, http.StatusBadRequest, "missing owner ID", "")
		return
	}

	mismatch, err := h.reconciliationUC.ReconcileOwner(r.Context(), ownerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if mismatch == nil {
		writeJSON(w, http.StatusOK, map[string]any{"consistent": true})
		return
	}

	writeJSON(w, http.StatusConflict, map[string]any{
		"consistent": false,
		"mismatch": dto.MismatchResponse{
			OwnerID:  mismatch.OwnerID,
			Balance:  mismatch.Balance,
			EntrySum: mismatch.EntrySum,
		},
	})
}

// ListOrphanedWorkOrders lists refunded requests whose external ticket is
// still alive and needs manual cancellation.
func (h *LedgerHandler) ListOrphanedWorkOrders(w http.ResponseWriter, r *http.Request) {
	orphans, err := h.reconciliationUC.ListOrphanedWorkOrders(r.Context(), parseIntQuery(r, "limit", 0))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list orphaned work orders", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.OrphansFromUseCase(orphans))
}
