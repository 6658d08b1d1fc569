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

// RequestRepository implements usecase.RequestRepository.
type RequestRepository struct {
	pool *pgxpool.Pool
}

// NewRequestRepository creates a new RequestRepository.
func NewRequestRepository(pool *pgxpool.Pool) *RequestRepository {
	return &RequestRepository{pool: pool}
}

const requestColumns = `id, owner_id, kind, story_id, cost, status, work_order_id, created_at, updated_at`

// Create inserts a new fulfillment request in requested status.
func (r *RequestRepository) Create(ctx context.Context, request *domain.FulfillmentRequest) error {
	query := `
		INSERT INTO fulfillment_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		request.ID,
		request.OwnerID,
		string(request.Kind),
		request.StoryID,
		request.Cost,
		string(request.Status),
		request.WorkOrderID,
		request.CreatedAt,
		request.UpdatedAt,
	)

	return err
}

// GetByID retrieves a fulfillment request by ID.
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*domain.FulfillmentRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM fulfillment_requests
		WHERE id = $1
	`

	request, err := scanRequest(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, err
	}

	return request, nil
}

// MarkCommitted transitions a request to committed and records its work order.
func (r *RequestRepository) MarkCommitted(ctx context.Context, tx usecase.Transaction, id, workOrderID string, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		UPDATE fulfillment_requests
		SET status = $2, work_order_id = $3, updated_at = $4
		WHERE id = $1 AND status = $5
	`

	tag, err := pgxTx.Exec(ctx, query,
		id,
		string(domain.RequestStatusCommitted),
		workOrderID,
		updatedAt,
		string(domain.RequestStatusRequested),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRequestNotFound
	}

	return nil
}

// MarkFailed transitions a committed request to failed. Zero rows affected
// means the request was not committed, so the caller's compensation must not
// move any credits.
func (r *RequestRepository) MarkFailed(ctx context.Context, tx usecase.Transaction, id string, updatedAt time.Time) (bool, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		UPDATE fulfillment_requests
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status = $4
	`

	tag, err := pgxTx.Exec(ctx, query,
		id,
		string(domain.RequestStatusFailed),
		updatedAt,
		string(domain.RequestStatusCommitted),
	)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}

// Delete removes a request that never progressed past requested status.
func (r *RequestRepository) Delete(ctx context.Context, id string) error {
	query := `
		DELETE FROM fulfillment_requests
		WHERE id = $1 AND status = $2
	`

	tag, err := r.pool.Exec(ctx, query, id, string(domain.RequestStatusRequested))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRequestNotDeletable
	}

	return nil
}

// ListByOwner retrieves an owner's requests, newest first.
func (r *RequestRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*domain.FulfillmentRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM fulfillment_requests
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRequests(rows)
}

// ListRefundedWithWorkOrder lists failed requests that still reference an
// external work order. These are the orphans manual reconciliation has to
// cancel on the fulfillment side.
func (r *RequestRepository) ListRefundedWithWorkOrder(ctx context.Context, limit int) ([]*domain.FulfillmentRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM fulfillment_requests
		WHERE status = $1 AND work_order_id IS NOT NULL
		ORDER BY updated_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, string(domain.RequestStatusFailed), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRequests(rows)
}

func scanRequest(row pgx.Row) (*domain.FulfillmentRequest, error) {
	request := &domain.FulfillmentRequest{}
	var kind, status string

	err := row.Scan(
		&request.ID,
		&request.OwnerID,
		&kind,
		&request.StoryID,
		&request.Cost,
		&status,
		&request.WorkOrderID,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	request.Kind = domain.FulfillmentKind(kind)
	request.Status = domain.RequestStatus(status)

	return request, nil
}

func scanRequests(rows pgx.Rows) ([]*domain.FulfillmentRequest, error) {
	requests := make([]*domain.FulfillmentRequest, 0)
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}

	return requests, rows.Err()
}
