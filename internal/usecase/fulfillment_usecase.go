package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fablepress/fulfillment/internal/domain"
	"github.com/fablepress/fulfillment/internal/infrastructure/metrics"
)

// sagaState names where a fulfillment run currently stands. States only move
// forward; failure at any step runs the compensations recorded so far in
// reverse order.
type sagaState string

const (
	sagaStateStart       sagaState = "start"
	sagaStateEligible    sagaState = "eligible"
	sagaStateReserved    sagaState = "reserved"
	sagaStateWorkOrdered sagaState = "work_ordered"
	sagaStateCharged     sagaState = "charged"
	sagaStateDispatched  sagaState = "dispatched"
	sagaStateDone        sagaState = "done"
)

// compensation is one reversing action recorded after a side-effecting step.
// Compensations must be idempotent: safe to run once and safe to re-run.
type compensation struct {
	name string
	run  func(ctx context.Context) error
}

// sagaRun tracks the state and pending compensations of one fulfillment call.
type sagaRun struct {
	state         sagaState
	compensations []compensation
}

func (r *sagaRun) advance(s sagaState) {
	r.state = s
}

func (r *sagaRun) onFailure(name string, fn func(ctx context.Context) error) {
	r.compensations = append(r.compensations, compensation{name: name, run: fn})
}

// clearCompensations drops recorded compensations that a later step has
// superseded (e.g. the reservation delete once the charge committed).
func (r *sagaRun) clearCompensations() {
	r.compensations = nil
}

// FulfillmentUseCase coordinates the fulfillment saga: eligibility check,
// request reservation, external work-order creation, atomic credit debit,
// async job dispatch, and compensation on partial failure. One instance
// serves every fulfillment kind; the price table decides the cost.
type FulfillmentUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	entryRepo   EntryRepository
	requestRepo RequestRepository
	storyRepo   StoryRepository
	pricingRepo PricingRepository
	outboxRepo  OutboxRepository
	workOrders  WorkOrderClient
	dispatcher  JobDispatcher
	notifier    NotificationDispatcher
	dedup       DedupStore
	idGen       IDGenerator
	retrier     Retrier
	metrics     *metrics.Metrics
	logger      zerolog.Logger
	dedupTTL    time.Duration
}

// FulfillmentConfig holds dependencies for the saga.
type FulfillmentConfig struct {
	TxManager   TransactionManager
	AccountRepo AccountRepository
	EntryRepo   EntryRepository
	RequestRepo RequestRepository
	StoryRepo   StoryRepository
	PricingRepo PricingRepository
	OutboxRepo  OutboxRepository
	WorkOrders  WorkOrderClient
	Dispatcher  JobDispatcher
	Notifier    NotificationDispatcher
	Dedup       DedupStore
	IDGen       IDGenerator
	Retrier     Retrier
	Metrics     *metrics.Metrics
	Logger      zerolog.Logger
	DedupTTL    time.Duration
}

// NewFulfillmentUseCase creates a new FulfillmentUseCase.
func NewFulfillmentUseCase(cfg FulfillmentConfig) *FulfillmentUseCase {
	if cfg.DedupTTL == 0 {
		cfg.DedupTTL = DefaultDedupWindow
	}

	return &FulfillmentUseCase{
		txManager:   cfg.TxManager,
		accountRepo: cfg.AccountRepo,
		entryRepo:   cfg.EntryRepo,
		requestRepo: cfg.RequestRepo,
		storyRepo:   cfg.StoryRepo,
		pricingRepo: cfg.PricingRepo,
		outboxRepo:  cfg.OutboxRepo,
		workOrders:  cfg.WorkOrders,
		dispatcher:  cfg.Dispatcher,
		notifier:    cfg.Notifier,
		dedup:       cfg.Dedup,
		idGen:       cfg.IDGen,
		retrier:     cfg.Retrier,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		dedupTTL:    cfg.DedupTTL,
	}
}

// RequestFulfillmentInput represents one fulfillment commission.
type RequestFulfillmentInput struct {
	OwnerID string
	StoryID string
	Kind    domain.FulfillmentKind
}

// RequestFulfillmentResult is the saga outcome returned to the caller.
type RequestFulfillmentResult struct {
	RequestID   string
	WorkOrderID string
	Status      domain.RequestStatus
	NewBalance  int64
}

// RequestFulfillment runs the orchestration saga. Ordering is deliberate:
// the external work order is created before any credits move, so a rejected
// order costs nothing, and the debit is compensated with an equal refund if
// the job publish fails afterwards.
func (uc *FulfillmentUseCase) RequestFulfillment(ctx context.Context, input RequestFulfillmentInput) (*RequestFulfillmentResult, error) {
	if err := domain.ValidateID(input.OwnerID); err != nil {
		return nil, err
	}
	if err := domain.ValidateID(input.StoryID); err != nil {
		return nil, err
	}
	if !input.Kind.Valid() {
		return nil, domain.ErrInvalidKind
	}

	if uc.metrics != nil {
		uc.metrics.FulfillmentsRequested.WithLabelValues(string(input.Kind)).Inc()
	}

	// Dedup window keyed by the logical request, so a network retry after an
	// unacknowledged success cannot double-charge.
	dedupKey := fmt.Sprintf("fulfillment:%s:%s:%s", input.OwnerID, input.StoryID, input.Kind)
	if uc.dedup != nil {
		acquired, err := uc.dedup.Acquire(ctx, dedupKey, uc.dedupTTL)
		if err != nil {
			uc.logger.Error().Err(err).Str("key", dedupKey).Msg("dedup acquire failed")
			return nil, domain.ErrDependencyFailure
		}
		if !acquired {
			return nil, domain.ErrDuplicateRequest
		}
	}

	start := time.Now()
	result, err := uc.run(ctx, input)
	if err != nil {
		// Release the window on failure so the caller's explicit retry is
		// not locked out. On success the key ages out on its own.
		if uc.dedup != nil {
			if relErr := uc.dedup.Release(ctx, dedupKey); relErr != nil {
				uc.logger.Warn().Err(relErr).Str("key", dedupKey).Msg("dedup release failed")
			}
		}
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.FulfillmentsCompleted.WithLabelValues(string(input.Kind)).Inc()
		uc.metrics.FulfillmentDuration.Observe(time.Since(start).Seconds())
	}

	return result, nil
}

func (uc *FulfillmentUseCase) run(ctx context.Context, input RequestFulfillmentInput) (*RequestFulfillmentResult, error) {
	run := &sagaRun{state: sagaStateStart}

	// Step 1: eligibility. No side effects yet, nothing to compensate.
	story, err := uc.storyRepo.GetByID(ctx, input.StoryID)
	if err != nil {
		return nil, err
	}
	if story.OwnerID != input.OwnerID {
		// Ownership failures surface as not found so callers cannot probe
		// for other owners' stories.
		return nil, domain.ErrStoryNotFound
	}
	if err := story.EligibleForFulfillment(input.Kind); err != nil {
		return nil, err
	}
	run.advance(sagaStateEligible)

	// Step 2: reserve. Cost comes from the server-side price table; a
	// caller-supplied total is never trusted.
	price, err := uc.pricingRepo.GetPrice(ctx, input.Kind)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	request := &domain.FulfillmentRequest{
		ID:        uc.idGen.Generate(),
		OwnerID:   input.OwnerID,
		Kind:      input.Kind,
		StoryID:   input.StoryID,
		Cost:      price.Credits,
		Status:    domain.RequestStatusRequested,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := request.Validate(); err != nil {
		return nil, err
	}
	if err := uc.requestRepo.Create(ctx, request); err != nil {
		return nil, err
	}
	run.advance(sagaStateReserved)
	run.onFailure("delete reservation", func(ctx context.Context) error {
		return uc.requestRepo.Delete(ctx, request.ID)
	})

	// Step 3: create the external work order. It must exist before any
	// credits move; a failure here is free.
	workOrderID, err := uc.workOrders.Create(ctx, WorkOrder{
		Category: string(input.Kind),
		OwnerID:  input.OwnerID,
		StoryID:  input.StoryID,
		Cost:     price.Credits,
		Metadata: map[string]any{"request_id": request.ID},
	})
	if err != nil {
		uc.logger.Error().Err(err).
			Str("request_id", request.ID).
			Str("kind", string(input.Kind)).
			Msg("work order creation failed")
		uc.compensate(ctx, run)
		if uc.metrics != nil {
			uc.metrics.DependencyFailures.WithLabelValues("work_order").Inc()
		}
		return nil, domain.ErrDependencyFailure
	}
	run.advance(sagaStateWorkOrdered)

	// Steps 4+5: charge and mark committed, one database transaction. The
	// conditional decrement is the authoritative funds gate; the debit entry,
	// the committed status, the story flag and the outbox record all land
	// atomically with it.
	newBalance, err := uc.charge(ctx, request, workOrderID)
	if err != nil {
		uc.compensate(ctx, run)
		if ice, ok := domain.AsInsufficientCredits(err); ok {
			if uc.metrics != nil {
				uc.metrics.FulfillmentsRejected.WithLabelValues("insufficient_credits").Inc()
			}
			return nil, ice
		}
		uc.logger.Error().Err(err).Str("request_id", request.ID).Msg("charge failed")
		return nil, domain.ErrDependencyFailure
	}
	run.advance(sagaStateCharged)
	if uc.metrics != nil {
		uc.metrics.CreditsSpent.Add(float64(request.Cost))
	}
	// The reservation delete is no longer legal once the row is committed;
	// from here the only valid compensation is refund-and-mark-failed.
	run.clearCompensations()
	run.onFailure("refund charge", func(ctx context.Context) error {
		return uc.refund(ctx, request, workOrderID)
	})

	// Step 6: dispatch the generation job.
	if _, err := uc.dispatcher.Publish(ctx, Job{
		RequestID:   request.ID,
		OwnerID:     input.OwnerID,
		StoryID:     input.StoryID,
		Kind:        input.Kind,
		WorkOrderID: workOrderID,
	}); err != nil {
		uc.logger.Error().Err(err).
			Str("request_id", request.ID).
			Str("work_order_id", workOrderID).
			Msg("job dispatch failed, compensating charge")
		uc.compensate(ctx, run)
		if uc.metrics != nil {
			uc.metrics.DependencyFailures.WithLabelValues("dispatch").Inc()
		}
		return nil, domain.ErrDependencyFailure
	}
	run.advance(sagaStateDispatched)

	// Step 7: notify, off the critical path. Outcome never alters the
	// response or any ledger state.
	uc.notify(request, workOrderID)

	run.advance(sagaStateDone)

	return &RequestFulfillmentResult{
		RequestID:   request.ID,
		WorkOrderID: workOrderID,
		Status:      domain.RequestStatusCommitted,
		NewBalance:  newBalance,
	}, nil
}

// withRetry wraps a whole transaction so deadlocks and serialization
// failures are retried. Both charge and refund abort cleanly on failure,
// which makes re-running them safe.
func (uc *FulfillmentUseCase) withRetry(ctx context.Context, operation func() error) error {
	if uc.retrier == nil {
		return operation()
	}
	return uc.retrier.Retry(ctx, operation)
}

// charge runs the debit transaction: conditional balance decrement, debit
// entry, committed status, story in-progress flag and outbox event.
func (uc *FulfillmentUseCase) charge(ctx context.Context, request *domain.FulfillmentRequest, workOrderID string) (int64, error) {
	var newBalance int64
	err := uc.withRetry(ctx, func() error {
		b, err := uc.chargeTx(ctx, request, workOrderID)
		if err != nil {
			return err
		}
		newBalance = b
		return nil
	})
	if err != nil {
		return 0, err
	}
	return newBalance, nil
}

func (uc *FulfillmentUseCase) chargeTx(ctx context.Context, request *domain.FulfillmentRequest, workOrderID string) (int64, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	now := time.Now().UTC()

	newBalance, err := uc.accountRepo.DebitBalance(txCtx, tx, request.OwnerID, request.Cost, now)
	if err != nil {
		return 0, err
	}

	entry := &domain.LedgerEntry{
		ID:              uc.idGen.Generate(),
		OwnerID:         request.OwnerID,
		Amount:          -request.Cost,
		EventType:       request.Kind.EntryType(),
		RelatedEntityID: &request.StoryID,
		CreatedAt:       now,
	}
	if err := uc.entryRepo.Create(txCtx, tx, entry); err != nil {
		return 0, err
	}

	if err := uc.requestRepo.MarkCommitted(txCtx, tx, request.ID, workOrderID, now); err != nil {
		return 0, err
	}

	if err := uc.storyRepo.SetFulfillmentInProgress(txCtx, tx, request.StoryID, request.Kind, true, now); err != nil {
		return 0, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   request.ID,
		AggregateType: domain.AggregateTypeFulfillment,
		EventType:     domain.EventTypeFulfillmentCommitted,
		Payload: map[string]any{
			"request_id":    request.ID,
			"owner_id":      request.OwnerID,
			"story_id":      request.StoryID,
			"kind":          string(request.Kind),
			"cost":          request.Cost,
			"work_order_id": workOrderID,
		},
		CreatedAt: now,
		Published: false,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return 0, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return 0, err
	}

	request.Status = domain.RequestStatusCommitted
	request.WorkOrderID = &workOrderID

	return newBalance, nil
}

// refund compensates a committed charge: exactly one refund entry of equal
// magnitude, request marked failed, story flag reverted. The status
// transition is the idempotency guard; when the row is no longer committed
// the whole compensation is a no-op, so re-running after a crash is safe.
// The external work order is left standing for manual reconciliation.
func (uc *FulfillmentUseCase) refund(ctx context.Context, request *domain.FulfillmentRequest, workOrderID string) error {
	return uc.withRetry(ctx, func() error {
		return uc.refundTx(ctx, request, workOrderID)
	})
}

func (uc *FulfillmentUseCase) refundTx(ctx context.Context, request *domain.FulfillmentRequest, workOrderID string) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	now := time.Now().UTC()

	marked, err := uc.requestRepo.MarkFailed(txCtx, tx, request.ID, now)
	if err != nil {
		return err
	}
	if !marked {
		// Already compensated (or never committed), nothing to refund.
		return nil
	}

	if _, err := uc.accountRepo.CreditBalance(txCtx, tx, request.OwnerID, request.Cost, now); err != nil {
		return err
	}

	entry := &domain.LedgerEntry{
		ID:              uc.idGen.Generate(),
		OwnerID:         request.OwnerID,
		Amount:          request.Cost,
		EventType:       domain.EntryTypeRefund,
		RelatedEntityID: &request.StoryID,
		CreatedAt:       now,
	}
	if err := uc.entryRepo.Create(txCtx, tx, entry); err != nil {
		return err
	}

	if err := uc.storyRepo.SetFulfillmentInProgress(txCtx, tx, request.StoryID, request.Kind, false, now); err != nil {
		return err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   request.ID,
		AggregateType: domain.AggregateTypeFulfillment,
		EventType:     domain.EventTypeFulfillmentCompensated,
		Payload: map[string]any{
			"request_id":             request.ID,
			"owner_id":               request.OwnerID,
			"refunded":               request.Cost,
			"orphaned_work_order_id": workOrderID,
		},
		CreatedAt: now,
		Published: false,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return err
	}

	if err := tx.Commit(txCtx); err != nil {
		return err
	}

	uc.logger.Warn().
		Str("request_id", request.ID).
		Str("work_order_id", workOrderID).
		Msg("charge refunded; external work order left for manual reconciliation")

	return nil
}

// compensate runs recorded compensations in reverse order. Failures are
// logged and counted but do not mask the original step error; every
// compensation is idempotent and can be replayed by reconciliation.
func (uc *FulfillmentUseCase) compensate(ctx context.Context, run *sagaRun) {
	for i := len(run.compensations) - 1; i >= 0; i-- {
		c := run.compensations[i]
		if err := c.run(ctx); err != nil {
			uc.logger.Error().Err(err).
				Str("compensation", c.name).
				Str("state", string(run.state)).
				Msg("compensation failed")
		}
		if uc.metrics != nil {
			uc.metrics.CompensationsRun.WithLabelValues(c.name).Inc()
		}
	}
}

// notify fires the best-effort user notification on a detached goroutine.
// The saga never observes its outcome beyond a log line.
func (uc *FulfillmentUseCase) notify(request *domain.FulfillmentRequest, workOrderID string) {
	if uc.notifier == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), NotificationTimeout)
		defer cancel()

		err := uc.notifier.Send(ctx, "fulfillment_queued", request.OwnerID, map[string]string{
			"request_id":    request.ID,
			"story_id":      request.StoryID,
			"kind":          string(request.Kind),
			"work_order_id": workOrderID,
		})
		if err != nil {
			uc.logger.Warn().Err(err).
				Str("request_id", request.ID).
				Msg("fulfillment notification failed")
		}
	}()
}

// GetRequest retrieves a fulfillment request, scoped to its owner.
func (uc *FulfillmentUseCase) GetRequest(ctx context.Context, ownerID, id string) (*domain.FulfillmentRequest, error) {
	request, err := uc.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.OwnerID != ownerID {
		return nil, domain.ErrRequestNotFound
	}
	return request, nil
}

// ListRequestsInput represents input for listing fulfillment requests.
type ListRequestsInput struct {
	OwnerID string
	Limit   int
	Offset  int
}

// ListRequests lists an owner's fulfillment requests.
func (uc *FulfillmentUseCase) ListRequests(ctx context.Context, input ListRequestsInput) ([]*domain.FulfillmentRequest, error) {
	if err := domain.ValidateID(input.OwnerID); err != nil {
		return nil, err
	}

	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	return uc.requestRepo.ListByOwner(ctx, input.OwnerID, limit, offset)
}
