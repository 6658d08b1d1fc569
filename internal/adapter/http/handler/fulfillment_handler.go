package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fablepress/fulfillment/internal/adapter/http/dto"
	"github.com/fablepress/fulfillment/internal/usecase"
)

// FulfillmentHandler handles fulfillment-related HTTP requests.
type FulfillmentHandler struct {
	fulfillmentUC *usecase.FulfillmentUseCase
}

// NewFulfillmentHandler creates a new FulfillmentHandler.
func NewFulfillmentHandler(fulfillmentUC *usecase.FulfillmentUseCase) *FulfillmentHandler {
	return &FulfillmentHandler{fulfillmentUC: fulfillmentUC}
}

// Create commissions print or narration work for a story. The work is
// accepted once the charge is committed and the job dispatched; generation
// itself completes asynchronously.
func (h *FulfillmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req dto.RequestFulfillmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.fulfillmentUC.RequestFulfillment(r.Context(), req.ToUseCaseInput(ownerID))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, dto.FulfillmentFromResult(result))
}

// Get retrieves one of the owner's fulfillment requests.
func (h *FulfillmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing request ID", "")
		return
	}

	request, err := h.fulfillmentUC.GetRequest(r.Context(), ownerID, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RequestFromDomain(request))
}

// List lists the owner's fulfillment requests.
func (h *FulfillmentHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	requests, err := h.fulfillmentUC.ListRequests(r.Context(), usecase.ListRequestsInput{
		OwnerID: ownerID,
		Limit:   parseIntQuery(r, "limit", 0),
		Offset:  parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RequestsFromDomain(requests))
}
