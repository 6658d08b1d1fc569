package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fablepress/fulfillment/internal/domain"
	"github.com/fablepress/fulfillment/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	pool *pgxpool.Pool
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{pool: pool}
}

// Create appends a ledger entry within a transaction. Entries are never
// updated or deleted afterwards.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		INSERT INTO ledger_entries (id, owner_id, amount, event_type, related_entity_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := pgxTx.Exec(ctx, query,
		entry.ID,
		entry.OwnerID,
		entry.Amount,
		string(entry.EventType),
		entry.RelatedEntityID,
		entry.CreatedAt,
	)

	return err
}

// ListByOwner retrieves an owner's ledger entries, newest first.
func (r *EntryRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	query := `
		SELECT id, owner_id, amount, event_type, related_entity_id, created_at
		FROM ledger_entries
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*domain.LedgerEntry, 0)
	for rows.Next() {
		entry := &domain.LedgerEntry{}
		var eventType string
		if err := rows.Scan(
			&entry.ID,
			&entry.OwnerID,
			&entry.Amount,
			&eventType,
			&entry.RelatedEntityID,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entry.EventType = domain.EntryType(eventType)
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// SumByOwner sums an owner's entry amounts.
func (r *EntryRepository) SumByOwner(ctx context.Context, ownerID string) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM ledger_entries
		WHERE owner_id = $1
	`

	var sum int64
	if err := r.pool.QueryRow(ctx, query, ownerID).Scan(&sum); err != nil {
		return 0, err
	}

	return sum, nil
}
