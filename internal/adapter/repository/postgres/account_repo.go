package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fablepress/fulfillment/internal/domain"
	"github.com/fablepress/fulfillment/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// GetByOwner retrieves the credit account for an owner.
func (r *AccountRepository) GetByOwner(ctx context.Context, ownerID string) (*domain.CreditAccount, error) {
	query := `
		SELECT owner_id, balance, created_at, updated_at
		FROM credit_accounts
		WHERE owner_id = $1
	`

	account := &domain.CreditAccount{}
	err := r.pool.QueryRow(ctx, query, ownerID).Scan(
		&account.OwnerID,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}

	return account, nil
}

// DebitBalance decrements the balance only when it covers the amount. The
// WHERE clause is the funds gate: zero rows affected means the balance check
// failed under whatever balance is current, not whatever was read earlier.
func (r *AccountRepository) DebitBalance(ctx context.Context, tx usecase.Transaction, ownerID string, amount int64, updatedAt time.Time) (int64, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		UPDATE credit_accounts
		SET balance = balance - $2, updated_at = $3
		WHERE owner_id = $1 AND balance >= $2
		RETURNING balance
	`

	var newBalance int64
	err := pgxTx.QueryRow(ctx, query, ownerID, amount, updatedAt).Scan(&newBalance)
	if err == nil {
		return newBalance, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}

	// Either the account is missing or the balance fell short. Fetch the
	// current balance to tell the caller which.
	var available int64
	err = pgxTx.QueryRow(ctx, `SELECT balance FROM credit_accounts WHERE owner_id = $1`, ownerID).Scan(&available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, &domain.InsufficientCreditsError{Required: amount, Available: 0}
		}
		return 0, err
	}

	return 0, &domain.InsufficientCreditsError{Required: amount, Available: available}
}

// CreditBalance increments the balance, creating the account row on first use.
func (r *AccountRepository) CreditBalance(ctx context.Context, tx usecase.Transaction, ownerID string, amount int64, updatedAt time.Time) (int64, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		INSERT INTO credit_accounts (owner_id, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (owner_id) DO UPDATE
		SET balance = credit_accounts.balance + EXCLUDED.balance,
		    updated_at = EXCLUDED.updated_at
		RETURNING balance
	`

	var newBalance int64
	err := pgxTx.QueryRow(ctx, query, ownerID, amount, updatedAt).Scan(&newBalance)
	if err != nil {
		return 0, err
	}

	return newBalance, nil
}

// List retrieves credit accounts with pagination.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.CreditAccount, error) {
	query := `
		SELECT owner_id, balance, created_at, updated_at
		FROM credit_accounts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]*domain.CreditAccount, 0)
	for rows.Next() {
		account := &domain.CreditAccount{}
		if err := rows.Scan(
			&account.OwnerID,
			&account.Balance,
			&account.CreatedAt,
			&account.UpdatedAt,
		); err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}
