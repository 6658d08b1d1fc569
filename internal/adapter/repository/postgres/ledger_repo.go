package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fablepress/fulfillment/internal/usecase"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// CheckConsistency compares every balance projection against the sum of the
// owner's entries and returns the owners that disagree.
func (r *LedgerRepository) CheckConsistency(ctx context.Context) ([]usecase.BalanceMismatch, error) {
	query := `
		SELECT a.owner_id, a.balance, COALESCE(e.total, 0) AS entry_sum
		FROM credit_accounts a
		LEFT JOIN (
			SELECT owner_id, SUM(amount) AS total
			FROM ledger_entries
			GROUP BY owner_id
		) e ON e.owner_id = a.owner_id
		WHERE a.balance <> COALESCE(e.total, 0)
		ORDER BY a.owner_id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	mismatches := make([]usecase.BalanceMismatch, 0)
	for rows.Next() {
		var m usecase.BalanceMismatch
		if err := rows.Scan(&m.OwnerID, &m.Balance, &m.EntrySum); err != nil {
			return nil, err
		}
		mismatches = append(mismatches, m)
	}

	return mismatches, rows.Err()
}
