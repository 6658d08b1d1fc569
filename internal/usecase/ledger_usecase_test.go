package usecase_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fablepress/fulfillment/internal/domain"
	"github.com/fablepress/fulfillment/internal/usecase"
	"github.com/fablepress/fulfillment/internal/usecase/mocks"
)

type ledgerFixture struct {
	accountRepo *mocks.MockAccountRepository
	entryRepo   *mocks.MockEntryRepository
	pricingRepo *mocks.MockPricingRepository
	outboxRepo  *mocks.MockOutboxRepository
	uc          *usecase.LedgerUseCase
}

func newLedgerFixture() *ledgerFixture {
	f := &ledgerFixture{
		accountRepo: mocks.NewMockAccountRepository(),
		entryRepo:   mocks.NewMockEntryRepository(),
		pricingRepo: mocks.NewMockPricingRepository(),
		outboxRepo:  mocks.NewMockOutboxRepository(),
	}
	f.uc = usecase.NewLedgerUseCase(
		mocks.NewMockTransactionManager(),
		f.accountRepo,
		f.entryRepo,
		f.pricingRepo,
		f.outboxRepo,
		mocks.NewMockIDGenerator(),
		nil,
	)
	return f
}

func TestLedgerUseCase_GetBalance(t *testing.T) {
	f := newLedgerFixture()
	f.accountRepo.SetBalance("owner-1", 42)

	balance, err := f.uc.GetBalance(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), balance)

	// Unknown owners simply have a zero balance; accounts are lazy.
	balance, err = f.uc.GetBalance(context.Background(), "owner-2")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)

	_, err = f.uc.GetBalance(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidIDFormat)
}

func TestLedgerUseCase_GrantCredits(t *testing.T) {
	f := newLedgerFixture()

	newBalance, err := f.uc.GrantCredits(context.Background(), usecase.GrantCreditsInput{
		OwnerID:   "owner-1",
		Amount:    100,
		EventType: domain.EntryTypeInitialGrant,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100), newBalance)

	entries := f.entryRepo.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(100), entries[0].Amount)
	assert.Equal(t, domain.EntryTypeInitialGrant, entries[0].EventType)

	events := f.outboxRepo.Events()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventTypeCreditsGranted, events[0].EventType)
}

func TestLedgerUseCase_GrantCredits_Validation(t *testing.T) {
	f := newLedgerFixture()

	_, err := f.uc.GrantCredits(context.Background(), usecase.GrantCreditsInput{OwnerID: "owner-1", Amount: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = f.uc.GrantCredits(context.Background(), usecase.GrantCreditsInput{OwnerID: "owner-1", Amount: domain.MaxGrantAmount + 1})
	assert.ErrorIs(t, err, domain.ErrAmountTooLarge)

	_, err = f.uc.GrantCredits(context.Background(), usecase.GrantCreditsInput{OwnerID: "bad owner!", Amount: 10})
	assert.ErrorIs(t, err, domain.ErrInvalidIDFormat)

	assert.Empty(t, f.entryRepo.Entries())
}

func TestLedgerUseCase_PurchasePack(t *testing.T) {
	f := newLedgerFixture()
	f.pricingRepo.AddPack(&domain.CreditPack{
		ID:       "pack-small",
		Name:     "Starter",
		Credits:  50,
		Price:    decimal.NewFromFloat(4.99),
		Currency: "USD",
		Active:   true,
	})
	f.pricingRepo.AddPack(&domain.CreditPack{
		ID:      "pack-retired",
		Credits: 500,
		Price:   decimal.NewFromInt(20),
		Active:  false,
	})

	newBalance, err := f.uc.PurchasePack(context.Background(), "owner-1", "pack-small")
	require.NoError(t, err)
	assert.Equal(t, int64(50), newBalance)

	entries := f.entryRepo.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.EntryTypePurchase, entries[0].EventType)
	require.NotNil(t, entries[0].RelatedEntityID)
	assert.Equal(t, "pack-small", *entries[0].RelatedEntityID)

	_, err = f.uc.PurchasePack(context.Background(), "owner-1", "pack-unknown")
	assert.ErrorIs(t, err, domain.ErrPackNotFound)

	_, err = f.uc.PurchasePack(context.Background(), "owner-1", "pack-retired")
	assert.ErrorIs(t, err, domain.ErrPackNotFound)
}

func TestLedgerUseCase_ListEntries(t *testing.T) {
	f := newLedgerFixture()

	_, err := f.uc.GrantCredits(context.Background(), usecase.GrantCreditsInput{OwnerID: "owner-1", Amount: 10, EventType: domain.EntryTypePromotion})
	require.NoError(t, err)

	entries, err := f.uc.ListEntries(context.Background(), usecase.ListEntriesInput{OwnerID: "owner-1"})
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	entries, err = f.uc.ListEntries(context.Background(), usecase.ListEntriesInput{OwnerID: "owner-2"})
	require.NoError(t, err)
	assert.Empty(t, entries)
}
