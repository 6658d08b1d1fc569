package integration

import (
	"context"
	"testing"

	postgresrepo "github.com/fablepress/fulfillment/internal/adapter/repository/postgres"
	"github.com/fablepress/fulfillment/internal/domain"
	"github.com/fablepress/fulfillment/internal/usecase"
	"github.com/fablepress/fulfillment/tests/testutil"
)

func newLedgerUnderTest(db *testutil.TestDB) *usecase.LedgerUseCase {
	return usecase.NewLedgerUseCase(
		postgresrepo.NewTxManager(db.Pool),
		postgresrepo.NewAccountRepository(db.Pool),
		postgresrepo.NewEntryRepository(db.Pool),
		postgresrepo.NewPricingRepository(db.Pool),
		postgresrepo.NewOutboxRepository(db.Pool),
		postgresrepo.NewULIDGenerator(),
		nil,
	)
}

func TestGrantAndPurchase_LedgerStaysConsistent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	db := testutil.NewTestDB(t)
	defer db.Cleanup()
	db.TruncateAll(ctx)

	uc := newLedgerUnderTest(db)

	// Account is created lazily on first grant.
	balance, err := uc.GrantCredits(ctx, usecase.GrantCreditsInput{
		OwnerID:   "owner-1",
		Amount:    20,
		EventType: domain.EntryTypeInitialGrant,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance != 20 {
		t.Errorf("expected balance 20, got %d", balance)
	}

	balance, err = uc.PurchasePack(ctx, "owner-1", "pack-starter")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance != 45 {
		t.Errorf("expected balance 45 after starter pack, got %d", balance)
	}

	entries, err := uc.ListEntries(ctx, usecase.ListEntriesInput{OwnerID: "owner-1", Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	mismatches, err := postgresrepo.NewLedgerRepository(db.Pool).CheckConsistency(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mismatches) != 0 {
		t.Errorf("expected consistent ledger, got %+v", mismatches)
	}
}

func TestCheckConsistency_DetectsDrift(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	db := testutil.NewTestDB(t)
	defer db.Cleanup()
	db.TruncateAll(ctx)

	uc := newLedgerUnderTest(db)
	if _, err := uc.GrantCredits(ctx, usecase.GrantCreditsInput{OwnerID: "owner-1", Amount: 20}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Corrupt the projection behind the ledger's back.
	if _, err := db.Pool.Exec(ctx, `UPDATE credit_accounts SET balance = 99 WHERE owner_id = 'owner-1'`); err != nil {
		t.Fatalf("failed to corrupt balance: %v", err)
	}

	mismatches, err := postgresrepo.NewLedgerRepository(db.Pool).CheckConsistency(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mismatches) != 1 {
		t.Fatalf("expected 1 mismatch, got %d", len(mismatches))
	}
	if mismatches[0].Balance != 99 || mismatches[0].EntrySum != 20 {
		t.Errorf("expected balance 99 vs entry sum 20, got %+v", mismatches[0])
	}
}
