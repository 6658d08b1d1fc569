package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/fablepress/fulfillment/internal/domain"
	"github.com/fablepress/fulfillment/internal/infrastructure/metrics"
)

// LedgerUseCase owns all credit balance mutations outside the fulfillment
// saga: grants, promotions and pack purchases. Every mutation appends exactly
// one immutable ledger entry in the same transaction as the balance change.
type LedgerUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	entryRepo   EntryRepository
	pricingRepo PricingRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	metrics     *metrics.Metrics
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	pricingRepo PricingRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *LedgerUseCase {
	return &LedgerUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		pricingRepo: pricingRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		metrics:     metrics,
	}
}

// GetBalance reads the current balance projection. Owners without an account
// row simply have a zero balance; accounts are created lazily on first grant.
func (uc *LedgerUseCase) GetBalance(ctx context.Context, ownerID string) (int64, error) {
	if err := domain.ValidateID(ownerID); err != nil {
		return 0, err
	}

	account, err := uc.accountRepo.GetByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return 0, nil
		}
		return 0, err
	}

	return account.Balance, nil
}

// GrantCreditsInput represents input for granting credits.
type GrantCreditsInput struct {
	OwnerID   string
	Amount    int64
	EventType domain.EntryType
	RelatedID *string
}

// GrantCredits credits an owner and appends the matching ledger entry.
func (uc *LedgerUseCase) GrantCredits(ctx context.Context, input GrantCreditsInput) (int64, error) {
	if err := domain.ValidateID(input.OwnerID); err != nil {
		return 0, err
	}
	if err := domain.ValidateGrantAmount(input.Amount); err != nil {
		return 0, err
	}

	switch input.EventType {
	case domain.EntryTypeInitialGrant, domain.EntryTypePromotion:
	default:
		input.EventType = domain.EntryTypePromotion
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	now := time.Now().UTC()

	newBalance, err := uc.accountRepo.CreditBalance(txCtx, tx, input.OwnerID, input.Amount, now)
	if err != nil {
		return 0, err
	}

	entry := &domain.LedgerEntry{
		ID:              uc.idGen.Generate(),
		OwnerID:         input.OwnerID,
		Amount:          input.Amount,
		EventType:       input.EventType,
		RelatedEntityID: input.RelatedID,
		CreatedAt:       now,
	}
	if err := uc.entryRepo.Create(txCtx, tx, entry); err != nil {
		return 0, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   input.OwnerID,
		AggregateType: domain.AggregateTypeAccount,
		EventType:     domain.EventTypeCreditsGranted,
		Payload: map[string]any{
			"owner_id":   input.OwnerID,
			"amount":     input.Amount,
			"event_type": string(input.EventType),
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

	if uc.metrics != nil {
		uc.metrics.CreditsGranted.Add(float64(input.Amount))
	}

	return newBalance, nil
}

// PurchasePack applies a credit pack from the catalog to the owner's balance.
// The pack's real-currency price is catalog data only; payment capture lives
// with the payment provider, not here.
func (uc *LedgerUseCase) PurchasePack(ctx context.Context, ownerID, packID string) (int64, error) {
	if err := domain.ValidateID(ownerID); err != nil {
		return 0, err
	}

	pack, err := uc.pricingRepo.GetPack(ctx, packID)
	if err != nil {
		return 0, err
	}
	if !pack.Active {
		return 0, domain.ErrPackNotFound
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	now := time.Now().UTC()

	newBalance, err := uc.accountRepo.CreditBalance(txCtx, tx, ownerID, pack.Credits, now)
	if err != nil {
		return 0, err
	}

	entry := &domain.LedgerEntry{
		ID:              uc.idGen.Generate(),
		OwnerID:         ownerID,
		Amount:          pack.Credits,
		EventType:       domain.EntryTypePurchase,
		RelatedEntityID: &pack.ID,
		CreatedAt:       now,
	}
	if err := uc.entryRepo.Create(txCtx, tx, entry); err != nil {
		return 0, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   ownerID,
		AggregateType: domain.AggregateTypeAccount,
		EventType:     domain.EventTypeCreditsPurchased,
		Payload: map[string]any{
			"owner_id": ownerID,
			"pack_id":  pack.ID,
			"credits":  pack.Credits,
			"price":    pack.Price.String(),
			"currency": pack.Currency,
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

	return newBalance, nil
}

// ListEntriesInput represents input for listing ledger entries.
type ListEntriesInput struct {
	OwnerID string
	Limit   int
	Offset  int
}

// ListEntries lists an owner's ledger entries, newest first.
func (uc *LedgerUseCase) ListEntries(ctx context.Context, input ListEntriesInput) ([]*domain.LedgerEntry, error) {
	if err := domain.ValidateID(input.OwnerID); err != nil {
		return nil, err
	}

	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	return uc.entryRepo.ListByOwner(ctx, input.OwnerID, limit, offset)
}

// ListPacks lists the purchasable credit packs.
func (uc *LedgerUseCase) ListPacks(ctx context.Context) ([]*domain.CreditPack, error) {
	return uc.pricingRepo.ListPacks(ctx)
}
