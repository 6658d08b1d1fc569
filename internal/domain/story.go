package domain

import "time"

// StoryStatus is the publication lifecycle state of a story.
type StoryStatus string

const (
	StoryStatusDraft     StoryStatus = "draft"
	StoryStatusCompleted StoryStatus = "completed"
	StoryStatusArchived  StoryStatus = "archived"
)

// Story is the artifact being fulfilled. The per-kind in-progress flags are
// denormalized saga state: set when a request commits, cleared when the work
// finishes downstream or when a compensation reverts the request.
type Story struct {
	ID                  string
	OwnerID             string
	Title               string
	Status              StoryStatus
	PrintInProgress     bool
	NarrationInProgress bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// EligibleForFulfillment checks the story preconditions for commissioning
// work of the given kind. Only completed stories can be fulfilled, and at
// most one job per kind may be in flight.
func (s *Story) EligibleForFulfillment(kind FulfillmentKind) error {
	if s.Status != StoryStatusCompleted {
		return ErrStoryNotEligible
	}
	if s.FulfillmentInProgress(kind) {
		return ErrFulfillmentInProgress
	}
	return nil
}

// FulfillmentInProgress reports whether work of the given kind is in flight.
func (s *Story) FulfillmentInProgress(kind FulfillmentKind) bool {
	switch kind {
	case KindPrint:
		return s.PrintInProgress
	case KindNarration:
		return s.NarrationInProgress
	default:
		return false
	}
}
