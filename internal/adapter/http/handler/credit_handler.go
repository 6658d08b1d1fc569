package handler

import (
	"encoding/json"
	"net/http"

	"github.com/fablepress/fulfillment/internal/adapter/http/dto"
	"github.com/fablepress/fulfillment/internal/usecase"
)

// CreditHandler handles credit balance and ledger HTTP requests.
type CreditHandler struct {
	ledgerUC *usecase.LedgerUseCase
}

// NewCreditHandler creates a new CreditHandler.
func NewCreditHandler(ledgerUC *usecase.LedgerUseCase) *CreditHandler {
	return &CreditHandler{ledgerUC: ledgerUC}
}

// GetBalance returns the owner's credit balance. Owners with no account yet
// see a zero balance, not an error.
func (h *CreditHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	balance, err := h.ledgerUC.GetBalance(r.Context(), ownerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{OwnerID: ownerID, Balance: balance})
}

// Grant credits an owner. Operator endpoint.
func (h *CreditHandler) Grant(w http.ResponseWriter, r *http.Request) {
	var req dto.GrantCreditsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	balance, err := h.ledgerUC.GrantCredits(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{OwnerID: req.OwnerID, Balance: balance})
}

// Purchase exchanges a credit pack for credits.
func (h *CreditHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req dto.PurchasePackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	balance, err := h.ledgerUC.PurchasePack(r.Context(), ownerID, req.PackID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{OwnerID: ownerID, Balance: balance})
}

// ListPacks lists the purchasable credit packs.
func (h *CreditHandler) ListPacks(w http.ResponseWriter, r *http.Request) {
	packs, err := h.ledgerUC.ListPacks(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PacksFromDomain(packs))
}

// ListEntries lists the owner's ledger entries.
func (h *CreditHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	entries, err := h.ledgerUC.ListEntries(r.Context(), usecase.ListEntriesInput{
		OwnerID: ownerID,
		Limit:   parseIntQuery(r, "limit", 0),
		Offset:  parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(entries))
}
