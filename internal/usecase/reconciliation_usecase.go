package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/fablepress/fulfillment/internal/domain"
)

var (
	// ErrInconsistentLedger is returned when any balance projection disagrees
	// with the sum of the owner's ledger entries.
	ErrInconsistentLedger = errors.New("ledger is inconsistent: balance does not equal entry sum")
)

// ReconciliationUseCase verifies ledger integrity and surfaces the saga's
// known asymmetry: refunded requests whose external work order was never
// cancelled and needs a human to close it out.
type ReconciliationUseCase struct {
	accountRepo AccountRepository
	entryRepo   EntryRepository
	ledgerRepo  LedgerRepository
	requestRepo RequestRepository
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	ledgerRepo LedgerRepository,
	requestRepo RequestRepository,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		ledgerRepo:  ledgerRepo,
		requestRepo: requestRepo,
	}
}

// CheckLedgerConsistency verifies balance == Σ entries for every owner.
func (uc *ReconciliationUseCase) CheckLedgerConsistency(ctx context.Context) ([]BalanceMismatch, error) {
	mismatches, err := uc.ledgerRepo.CheckConsistency(ctx)
	if err != nil {
		return nil, err
	}

	if len(mismatches) > 0 {
		return mismatches, ErrInconsistentLedger
	}

	return nil, nil
}

// ReconcileOwner verifies a single owner's projection against their entries.
func (uc *ReconciliationUseCase) ReconcileOwner(ctx context.Context, ownerID string) (*BalanceMismatch, error) {
	if err := domain.ValidateID(ownerID); err != nil {
		return nil, err
	}

	account, err := uc.accountRepo.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	sum, err := uc.entryRepo.SumByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if account.Balance == sum {
		return nil, nil
	}

	return &BalanceMismatch{
		OwnerID:  ownerID,
		Balance:  account.Balance,
		EntrySum: sum,
	}, nil
}

// OrphanedWorkOrder is a charged-then-refunded request whose external ticket
// is still alive.
type OrphanedWorkOrder struct {
	RequestID   string
	OwnerID     string
	StoryID     string
	WorkOrderID string
	Refunded    int64
	FailedAt    time.Time
}

// ListOrphanedWorkOrders lists external tickets left standing by dispatch
// compensations, for the manual reconciliation queue.
func (uc *ReconciliationUseCase) ListOrphanedWorkOrders(ctx context.Context, limit int) ([]OrphanedWorkOrder, error) {
	if limit <= 0 {
		limit = domain.DefaultPageSize
	}

	requests, err := uc.requestRepo.ListRefundedWithWorkOrder(ctx, limit)
	if err != nil {
		return nil, err
	}

	orphans := make([]OrphanedWorkOrder, 0, len(requests))
	for _, r := range requests {
		if r.WorkOrderID == nil {
			continue
		}
		orphans = append(orphans, OrphanedWorkOrder{
			RequestID:   r.ID,
			OwnerID:     r.OwnerID,
			StoryID:     r.StoryID,
			WorkOrderID: *r.WorkOrderID,
			Refunded:    r.Cost,
			FailedAt:    r.UpdatedAt,
		})
	}

	return orphans, nil
}
