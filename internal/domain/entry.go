package domain

import "time"

// EntryType classifies why a ledger entry was written.
type EntryType string

const (
	EntryTypeInitialGrant EntryType = "initial_grant"
	EntryTypePurchase     EntryType = "purchase"
	EntryTypePrintOrder   EntryType = "print_order"
	EntryTypeNarration    EntryType = "audiobook_generation"
	EntryTypeRefund       EntryType = "refund"
	EntryTypePromotion    EntryType = "promotion"
)

// LedgerEntry is a single immutable signed record of a balance change.
// Entries are append-only; the account balance must equal the sum of the
// owner's entry amounts at all times.
type LedgerEntry struct {
	ID              string
	OwnerID         string
	Amount          int64
	EventType       EntryType
	RelatedEntityID *string
	CreatedAt       time.Time
}
