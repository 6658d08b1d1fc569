package domain

import "time"

// Event types
const (
	EventTypeFulfillmentCommitted   = "fulfillment.committed"
	EventTypeFulfillmentCompensated = "fulfillment.compensated"
	EventTypeCreditsGranted         = "credits.granted"
	EventTypeCreditsPurchased       = "credits.purchased"
)

// Aggregate types
const (
	AggregateTypeFulfillment = "fulfillment"
	AggregateTypeAccount     = "account"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// FulfillmentCommittedEvent payload
type FulfillmentCommittedEvent struct {
	RequestID   string `json:"request_id"`
	OwnerID     string `json:"owner_id"`
	StoryID     string `json:"story_id"`
	Kind        string `json:"kind"`
	Cost        int64  `json:"cost"`
	WorkOrderID string `json:"work_order_id"`
}

// FulfillmentCompensatedEvent payload. OrphanedWorkOrderID is set when the
// external ticket was not rolled back and needs manual reconciliation.
type FulfillmentCompensatedEvent struct {
	RequestID           string `json:"request_id"`
	OwnerID             string `json:"owner_id"`
	Refunded            int64  `json:"refunded"`
	OrphanedWorkOrderID string `json:"orphaned_work_order_id,omitempty"`
}

// CreditsGrantedEvent payload
type CreditsGrantedEvent struct {
	OwnerID   string `json:"owner_id"`
	Amount    int64  `json:"amount"`
	EventType string `json:"event_type"`
}
