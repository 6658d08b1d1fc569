package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fablepress/fulfillment/internal/domain"
	"github.com/fablepress/fulfillment/internal/usecase"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// InsufficientCreditsResponse tells the caller exactly how short they are.
type InsufficientCreditsResponse struct {
	Error     string `json:"error"`
	Required  int64  `json:"required"`
	Available int64  `json:"available"`
	Shortfall int64  `json:"shortfall"`
}

// FulfillmentStatusQueued is the status reported to callers once the
// job has been handed to the dispatch queue.
const FulfillmentStatusQueued = "queued"

// FulfillmentResponse is the saga outcome returned on acceptance.
type FulfillmentResponse struct {
	RequestID   string `json:"request_id"`
	WorkOrderID string `json:"work_order_id"`
	Status      string `json:"status"`
	NewBalance  int64  `json:"new_balance"`
}

// FulfillmentFromResult converts a saga result to a response. The
// internal row status is not exposed; an accepted request is queued.
func FulfillmentFromResult(r *usecase.RequestFulfillmentResult) *FulfillmentResponse {
	return &FulfillmentResponse{
		RequestID:   r.RequestID,
		WorkOrderID: r.WorkOrderID,
		Status:      FulfillmentStatusQueued,
		NewBalance:  r.NewBalance,
	}
}

// RequestResponse represents a fulfillment request in API responses.
type RequestResponse struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Kind        string    `json:"kind"`
	StoryID     string    `json:"story_id"`
	Cost        int64     `json:"cost"`
	Status      string    `json:"status"`
	WorkOrderID *string   `json:"work_order_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RequestFromDomain converts a domain request to a response.
func RequestFromDomain(r *domain.FulfillmentRequest) *RequestResponse {
	return &RequestResponse{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Kind:        string(r.Kind),
		StoryID:     r.StoryID,
		Cost:        r.Cost,
		Status:      string(r.Status),
		WorkOrderID: r.WorkOrderID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// RequestsFromDomain converts domain requests to responses.
func RequestsFromDomain(requests []*domain.FulfillmentRequest) []*RequestResponse {
	result := make([]*RequestResponse, len(requests))
	for i, r := range requests {
		result[i] = RequestFromDomain(r)
	}
	return result
}

// BalanceResponse represents a credit balance.
type BalanceResponse struct {
	OwnerID string `json:"owner_id"`
	Balance int64  `json:"balance"`
}

// EntryResponse represents a ledger entry in API responses.
type EntryResponse struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"owner_id"`
	Amount          int64     `json:"amount"`
	EventType       string    `json:"event_type"`
	RelatedEntityID *string   `json:"related_entity_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// EntryFromDomain converts a domain entry to a response.
func EntryFromDomain(e *domain.LedgerEntry) *EntryResponse {
	return &EntryResponse{
		ID:              e.ID,
		OwnerID:         e.OwnerID,
		Amount:          e.Amount,
		EventType:       string(e.EventType),
		RelatedEntityID: e.RelatedEntityID,
		CreatedAt:       e.CreatedAt,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.LedgerEntry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// PackResponse represents a credit pack in API responses.
type PackResponse struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Credits  int64           `json:"credits"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
}

// PackFromDomain converts a domain pack to a response.
func PackFromDomain(p *domain.CreditPack) *PackResponse {
	return &PackResponse{
		ID:       p.ID,
		Name:     p.Name,
		Credits:  p.Credits,
		Price:    p.Price,
		Currency: p.Currency,
	}
}

// PacksFromDomain converts domain packs to responses.
func PacksFromDomain(packs []*domain.CreditPack) []*PackResponse {
	result := make([]*PackResponse, len(packs))
	for i, p := range packs {
		result[i] = PackFromDomain(p)
	}
	return result
}

// StoryResponse represents a story in API responses.
type StoryResponse struct {
	ID                  string    `json:"id"`
	OwnerID             string    `json:"owner_id"`
	Title               string    `json:"title"`
	Status              string    `json:"status"`
	PrintInProgress     bool      `json:"print_in_progress"`
	NarrationInProgress bool      `json:"narration_in_progress"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// StoryFromDomain converts a domain story to a response.
func StoryFromDomain(s *domain.Story) *StoryResponse {
	return &StoryResponse{
		ID:                  s.ID,
		OwnerID:             s.OwnerID,
		Title:               s.Title,
		Status:              string(s.Status),
		PrintInProgress:     s.PrintInProgress,
		NarrationInProgress: s.NarrationInProgress,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
	}
}

// MismatchResponse represents a ledger mismatch in API responses.
type MismatchResponse struct {
	OwnerID  string `json:"owner_id"`
	Balance  int64  `json:"balance"`
	EntrySum int64  `json:"entry_sum"`
}

// MismatchesFromUseCase converts mismatches to responses.
func MismatchesFromUseCase(mismatches []usecase.BalanceMismatch) []MismatchResponse {
	result := make([]MismatchResponse, len(mismatches))
	for i, m := range mismatches {
		result[i] = MismatchResponse{
			OwnerID:  m.OwnerID,
			Balance:  m.Balance,
			EntrySum: m.EntrySum,
		}
	}
	return result
}

// OrphanResponse represents an orphaned work order in API responses.
type OrphanResponse struct {
	RequestID   string    `json:"request_id"`
	OwnerID     string    `json:"owner_id"`
	StoryID     string    `json:"story_id"`
	WorkOrderID string    `json:"work_order_id"`
	Refunded    int64     `json:"refunded"`
	FailedAt    time.Time `json:"failed_at"`
}

// OrphansFromUseCase converts orphaned work orders to responses.
func OrphansFromUseCase(orphans []usecase.OrphanedWorkOrder) []OrphanResponse {
	result := make([]OrphanResponse, len(orphans))
	for i, o := range orphans {
		result[i] = OrphanResponse{
			RequestID:   o.RequestID,
			OwnerID:     o.OwnerID,
			StoryID:     o.StoryID,
			WorkOrderID: o.WorkOrderID,
			Refunded:    o.Refunded,
			FailedAt:    o.FailedAt,
		}
	}
	return result
}
