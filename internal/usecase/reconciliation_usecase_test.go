package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fablepress/fulfillment/internal/domain"
	"github.com/fablepress/fulfillment/internal/usecase"
	"github.com/fablepress/fulfillment/internal/usecase/mocks"
)

func TestReconciliationUseCase_CheckLedgerConsistency(t *testing.T) {
	ledgerRepo := mocks.NewMockLedgerRepository()
	uc := usecase.NewReconciliationUseCase(
		mocks.NewMockAccountRepository(),
		mocks.NewMockEntryRepository(),
		ledgerRepo,
		mocks.NewMockRequestRepository(),
	)

	t.Run("consistent ledger", func(t *testing.T) {
		mismatches, err := uc.CheckLedgerConsistency(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(mismatches) != 0 {
			t.Errorf("expected no mismatches, got %d", len(mismatches))
		}
	})

	t.Run("drifted projection", func(t *testing.T) {
		ledgerRepo.CheckConsistencyFunc = func(ctx context.Context) ([]usecase.BalanceMismatch, error) {
			return []usecase.BalanceMismatch{
				{OwnerID: "owner-1", Balance: 10, EntrySum: 18},
			}, nil
		}

		mismatches, err := uc.CheckLedgerConsistency(context.Background())
		if !errors.Is(err, usecase.ErrInconsistentLedger) {
			t.Fatalf("expected ErrInconsistentLedger, got %v", err)
		}
		if len(mismatches) != 1 || mismatches[0].OwnerID != "owner-1" {
			t.Errorf("unexpected mismatches: %+v", mismatches)
		}
	})
}

func TestReconciliationUseCase_ReconcileOwner(t *testing.T) {
	accountRepo := mocks.NewMockAccountRepository()
	entryRepo := mocks.NewMockEntryRepository()
	uc := usecase.NewReconciliationUseCase(
		accountRepo,
		entryRepo,
		mocks.NewMockLedgerRepository(),
		mocks.NewMockRequestRepository(),
	)

	accountRepo.SetBalance("owner-1", 10)
	entryRepo.Create(context.Background(), nil, &domain.LedgerEntry{ID: "e1", OwnerID: "owner-1", Amount: 15})
	entryRepo.Create(context.Background(), nil, &domain.LedgerEntry{ID: "e2", OwnerID: "owner-1", Amount: -5})

	mismatch, err := uc.ReconcileOwner(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mismatch != nil {
		t.Errorf("expected reconciled owner, got mismatch %+v", mismatch)
	}

	// Break the projection.
	accountRepo.SetBalance("owner-1", 7)

	mismatch, err = uc.ReconcileOwner(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mismatch == nil {
		t.Fatal("expected mismatch")
	}
	if mismatch.Balance != 7 || mismatch.EntrySum != 10 {
		t.Errorf("unexpected figures: %+v", mismatch)
	}
}

func TestReconciliationUseCase_ListOrphanedWorkOrders(t *testing.T) {
	requestRepo := mocks.NewMockRequestRepository()
	uc := usecase.NewReconciliationUseCase(
		mocks.NewMockAccountRepository(),
		mocks.NewMockEntryRepository(),
		mocks.NewMockLedgerRepository(),
		requestRepo,
	)

	now := time.Now().UTC()
	wo := "wo-42"

	requestRepo.Create(context.Background(), &domain.FulfillmentRequest{
		ID: "req-1", OwnerID: "owner-1", StoryID: "story-1",
		Kind: domain.KindPrint, Cost: 8, Status: domain.RequestStatusRequested,
	})
	requestRepo.MarkCommitted(context.Background(), nil, "req-1", wo, now)
	requestRepo.MarkFailed(context.Background(), nil, "req-1", now)

	// A plain committed request must not show up.
	requestRepo.Create(context.Background(), &domain.FulfillmentRequest{
		ID: "req-2", OwnerID: "owner-1", StoryID: "story-2",
		Kind: domain.KindPrint, Cost: 8, Status: domain.RequestStatusRequested,
	})
	requestRepo.MarkCommitted(context.Background(), nil, "req-2", "wo-43", now)

	orphans, err := uc.ListOrphanedWorkOrders(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orphans) != 1 {
		t.Fatalf("expected 1 orphan, got %d", len(orphans))
	}
	if orphans[0].WorkOrderID != wo || orphans[0].Refunded != 8 {
		t.Errorf("unexpected orphan: %+v", orphans[0])
	}
}
