package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/fablepress/fulfillment/internal/adapter/http/dto"
	"github.com/fablepress/fulfillment/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeDomainError maps a domain error onto a response. Insufficient credits
// get the structured 402 body; dependency failures get the generic retryable
// message with no internal detail.
func writeDomainError(w http.ResponseWriter, err error) {
	if ice, ok := domain.AsInsufficientCredits(err); ok {
		writeJSON(w, http.StatusPaymentRequired, dto.InsufficientCreditsResponse{
			Error:     "insufficient credits",
			Required:  ice.Required,
			Available: ice.Available,
			Shortfall: ice.Shortfall(),
		})
		return
	}

	if errors.Is(err, domain.ErrDependencyFailure) {
		writeError(w, http.StatusInternalServerError, err.Error(), "")
		return
	}

	writeError(w, mapDomainError(err), err.Error(), "")
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrStoryNotFound),
		errors.Is(err, domain.ErrRequestNotFound),
		errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrPackNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateRequest),
		errors.Is(err, domain.ErrFulfillmentInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrStoryNotEligible),
		errors.Is(err, domain.ErrInvalidKind),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidIDFormat),
		errors.Is(err, domain.ErrAmountTooLarge),
		errors.Is(err, domain.ErrRequestNotDeletable):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// requireOwner extracts the authenticated owner from the request context.
func requireOwner(w http.ResponseWriter, r *http.Request) (string, bool) {
	ownerID, ok := domain.OwnerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing owner identity", "")
		return "", false
	}
	return ownerID, true
}
