package usecase

import (
	"context"
	"time"

	"github.com/fablepress/fulfillment/internal/domain"
)

// AccountRepository defines data access for credit accounts.
type AccountRepository interface {
	GetByOwner(ctx context.Context, ownerID string) (*domain.CreditAccount, error)
	// DebitBalance atomically verifies balance >= amount and decrements it in
	// a single conditional update. Returns the new balance, or a
	// *domain.InsufficientCreditsError when the condition does not hold.
	DebitBalance(ctx context.Context, tx Transaction, ownerID string, amount int64, updatedAt time.Time) (int64, error)
	// CreditBalance increments the balance, creating the account row lazily.
	CreditBalance(ctx context.Context, tx Transaction, ownerID string, amount int64, updatedAt time.Time) (int64, error)
	List(ctx context.Context, limit, offset int) ([]*domain.CreditAccount, error)
}

// EntryRepository defines data access for ledger entries.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*domain.LedgerEntry, error)
	SumByOwner(ctx context.Context, ownerID string) (int64, error)
}

// RequestRepository defines data access for fulfillment requests.
type RequestRepository interface {
	Create(ctx context.Context, request *domain.FulfillmentRequest) error
	GetByID(ctx context.Context, id string) (*domain.FulfillmentRequest, error)
	MarkCommitted(ctx context.Context, tx Transaction, id, workOrderID string, updatedAt time.Time) error
	// MarkFailed transitions a committed request to failed. Returns false when
	// the row was not in committed status, so compensations can re-run safely.
	MarkFailed(ctx context.Context, tx Transaction, id string, updatedAt time.Time) (bool, error)
	// Delete removes a request that is still in requested status.
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*domain.FulfillmentRequest, error)
	// ListRefundedWithWorkOrder lists failed requests that still reference an
	// external work order, for manual reconciliation.
	ListRefundedWithWorkOrder(ctx context.Context, limit int) ([]*domain.FulfillmentRequest, error)
}

// StoryRepository defines data access for stories.
type StoryRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Story, error)
	SetFulfillmentInProgress(ctx context.Context, tx Transaction, storyID string, kind domain.FulfillmentKind, inProgress bool, updatedAt time.Time) error
}

// PricingRepository defines data access for the price table and pack catalog.
type PricingRepository interface {
	GetPrice(ctx context.Context, kind domain.FulfillmentKind) (*domain.Price, error)
	GetPack(ctx context.Context, id string) (*domain.CreditPack, error)
	ListPacks(ctx context.Context) ([]*domain.CreditPack, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// LedgerRepository defines ledger-wide integrity queries.
type LedgerRepository interface {
	// CheckConsistency returns every owner whose balance projection disagrees
	// with the sum of their ledger entries.
	CheckConsistency(ctx context.Context) ([]BalanceMismatch, error)
}

// BalanceMismatch is one owner whose projection drifted from the ledger.
type BalanceMismatch struct {
	OwnerID  string
	Balance  int64
	EntrySum int64
}

// WorkOrderClient creates durable tickets in the external fulfillment system.
// Create must fail loudly if it cannot durably record the order.
type WorkOrderClient interface {
	Create(ctx context.Context, order WorkOrder) (string, error)
}

// WorkOrder is the payload sent to the external ticketing system.
type WorkOrder struct {
	Category string
	OwnerID  string
	StoryID  string
	Cost     int64
	Metadata map[string]any
}

// JobDispatcher publishes the message that triggers the generation pipeline.
// Delivery downstream is at least once; the saga only needs confirmation that
// the publish itself succeeded.
type JobDispatcher interface {
	Publish(ctx context.Context, job Job) (string, error)
}

// Job is the dispatch payload for the generation pipeline.
type Job struct {
	RequestID   string
	OwnerID     string
	StoryID     string
	Kind        domain.FulfillmentKind
	WorkOrderID string
}

// NotificationDispatcher sends best-effort user notifications. Failures are
// logged and never propagated.
type NotificationDispatcher interface {
	Send(ctx context.Context, template, recipient string, variables map[string]string) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier retries an operation on transient failures.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

// DedupStore guards against duplicate in-flight fulfillment requests keyed by
// (owner, story, kind).
type DedupStore interface {
	// Acquire claims the key for the window. Returns false when another
	// request already holds it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}
