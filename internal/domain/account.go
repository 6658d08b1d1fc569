package domain

import "time"

// CreditAccount holds the credit balance for one owner. The balance is a
// projection over the owner's ledger entries; it is only ever mutated through
// ledger operations and must never go negative.
type CreditAccount struct {
	OwnerID   string
	Balance   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanDebit checks whether the account covers a debit of amount.
func (a *CreditAccount) CanDebit(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if a.Balance < amount {
		return &InsufficientCreditsError{Required: amount, Available: a.Balance}
	}
	return nil
}
