package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Price is the authoritative server-side cost in credits for one fulfillment
// kind. Costs are never accepted from the caller.
type Price struct {
	Kind      FulfillmentKind
	Credits   int64
	UpdatedAt time.Time
}

// CreditPack is a purchasable bundle of credits priced in real currency.
type CreditPack struct {
	ID        string
	Name      string
	Credits   int64
	Price     decimal.Decimal
	Currency  string
	Active    bool
	CreatedAt time.Time
}

// Validate validates pack fields.
func (p *CreditPack) Validate() error {
	if p.Credits <= 0 {
		return ErrInvalidAmount
	}
	if p.Price.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	return nil
}
