package domain

import "time"

// FulfillmentKind identifies the type of work being commissioned.
type FulfillmentKind string

const (
	KindPrint     FulfillmentKind = "print"
	KindNarration FulfillmentKind = "narration"
)

// EntryType returns the ledger entry type recorded for a debit of this kind.
func (k FulfillmentKind) EntryType() EntryType {
	switch k {
	case KindPrint:
		return EntryTypePrintOrder
	case KindNarration:
		return EntryTypeNarration
	default:
		return ""
	}
}

// Valid reports whether the kind is a known fulfillment kind.
func (k FulfillmentKind) Valid() bool {
	return k == KindPrint || k == KindNarration
}

// RequestStatus is the lifecycle state of a fulfillment request.
type RequestStatus string

const (
	RequestStatusRequested RequestStatus = "requested"
	RequestStatusCommitted RequestStatus = "committed"
	RequestStatusFailed    RequestStatus = "failed"
	RequestStatusCancelled RequestStatus = "cancelled"
)

// FulfillmentRequest is one commissioned job. A request transitions at most
// once to committed, paired with exactly one debit entry. A committed request
// that later fails is marked failed (never deleted) and paired with exactly
// one refund entry of equal magnitude.
type FulfillmentRequest struct {
	ID          string
	OwnerID     string
	Kind        FulfillmentKind
	StoryID     string
	Cost        int64
	Status      RequestStatus
	WorkOrderID *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate validates the request fields.
func (r *FulfillmentRequest) Validate() error {
	if !r.Kind.Valid() {
		return ErrInvalidKind
	}
	if r.Cost <= 0 {
		return ErrInvalidAmount
	}
	if r.OwnerID == "" || r.StoryID == "" {
		return ErrInvalidIDFormat
	}
	return nil
}

// Deletable reports whether the row may still be removed. Deletion is only
// permitted before any debit occurred.
func (r *FulfillmentRequest) Deletable() bool {
	return r.Status == RequestStatusRequested
}
