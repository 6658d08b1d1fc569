package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultDedupWindow is how long a (owner, story, kind) fulfillment key is
	// held to short-circuit caller retries of the same logical request
	DefaultDedupWindow = 30 * time.Second

	// NotificationTimeout bounds the detached notification send
	NotificationTimeout = 15 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour
)
