package dto

import (
	"github.com/fablepress/fulfillment/internal/domain"
	"github.com/fablepress/fulfillment/internal/usecase"
)

// RequestFulfillmentRequest represents a request to commission work for a
// story. The cost is never part of the payload; the server price table is
// authoritative.
type RequestFulfillmentRequest struct {
	StoryID string `json:"story_id"`
	Kind    string `json:"kind"`
}

// ToUseCaseInput converts to use case input.
func (r *RequestFulfillmentRequest) ToUseCaseInput(ownerID string) usecase.RequestFulfillmentInput {
	return usecase.RequestFulfillmentInput{
		OwnerID: ownerID,
		StoryID: r.StoryID,
		Kind:    domain.FulfillmentKind(r.Kind),
	}
}

// GrantCreditsRequest represents an operator credit grant.
type GrantCreditsRequest struct {
	OwnerID   string  `json:"owner_id"`
	Amount    int64   `json:"amount"`
	EventType string  `json:"event_type,omitempty"`
	RelatedID *string `json:"related_id,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *GrantCreditsRequest) ToUseCaseInput() usecase.GrantCreditsInput {
	return usecase.GrantCreditsInput{
		OwnerID:   r.OwnerID,
		Amount:    r.Amount,
		EventType: domain.EntryType(r.EventType),
		RelatedID: r.RelatedID,
	}
}

// PurchasePackRequest represents a credit pack purchase.
type PurchasePackRequest struct {
	PackID string `json:"pack_id"`
}
