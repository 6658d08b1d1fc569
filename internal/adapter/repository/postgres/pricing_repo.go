package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/fablepress/fulfillment/internal/domain"
)

// PricingRepository implements usecase.PricingRepository.
type PricingRepository struct {
	pool *pgxpool.Pool
}

// NewPricingRepository creates a new PricingRepository.
func NewPricingRepository(pool *pgxpool.Pool) *PricingRepository {
	return &PricingRepository{pool: pool}
}

// GetPrice retrieves the credit cost for a fulfillment kind.
func (r *PricingRepository) GetPrice(ctx context.Context, kind domain.FulfillmentKind) (*domain.Price, error) {
	query := `
		SELECT kind, credits, updated_at
		FROM prices
		WHERE kind = $1
	`

	price := &domain.Price{}
	var k string
	err := r.pool.QueryRow(ctx, query, string(kind)).Scan(&k, &price.Credits, &price.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPriceNotFound
		}
		return nil, err
	}
	price.Kind = domain.FulfillmentKind(k)

	return price, nil
}

// GetPack retrieves a credit pack by ID.
func (r *PricingRepository) GetPack(ctx context.Context, id string) (*domain.CreditPack, error) {
	query := `
		SELECT id, name, credits, price, currency, active, created_at
		FROM credit_packs
		WHERE id = $1
	`

	pack, err := scanPack(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPackNotFound
		}
		return nil, err
	}

	return pack, nil
}

// ListPacks retrieves active credit packs, cheapest first.
func (r *PricingRepository) ListPacks(ctx context.Context) ([]*domain.CreditPack, error) {
	query := `
		SELECT id, name, credits, price, currency, active, created_at
		FROM credit_packs
		WHERE active
		ORDER BY price ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	packs := make([]*domain.CreditPack, 0)
	for rows.Next() {
		pack, err := scanPack(rows)
		if err != nil {
			return nil, err
		}
		packs = append(packs, pack)
	}

	return packs, rows.Err()
}

func scanPack(row pgx.Row) (*domain.CreditPack, error) {
	pack := &domain.CreditPack{}
	var price string

	err := row.Scan(
		&pack.ID,
		&pack.Name,
		&pack.Credits,
		&price,
		&pack.Currency,
		&pack.Active,
		&pack.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	pack.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, err
	}

	return pack, nil
}
