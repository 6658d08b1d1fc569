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

// StoryRepository implements usecase.StoryRepository.
type StoryRepository struct {
	pool *pgxpool.Pool
}

// NewStoryRepository creates a new StoryRepository.
func NewStoryRepository(pool *pgxpool.Pool) *StoryRepository {
	return &StoryRepository{pool: pool}
}

// GetByID retrieves a story by ID.
func (r *StoryRepository) GetByID(ctx context.Context, id string) (*domain.Story, error) {
	query := `
		SELECT id, owner_id, title, status, print_in_progress, narration_in_progress, created_at, updated_at
		FROM stories
		WHERE id = $1
	`

	story := &domain.Story{}
	var status string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&story.ID,
		&story.OwnerID,
		&story.Title,
		&status,
		&story.PrintInProgress,
		&story.NarrationInProgress,
		&story.CreatedAt,
		&story.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrStoryNotFound
		}
		return nil, err
	}
	story.Status = domain.StoryStatus(status)

	return story, nil
}

// SetFulfillmentInProgress flips the in-progress flag for one fulfillment kind.
func (r *StoryRepository) SetFulfillmentInProgress(ctx context.Context, tx usecase.Transaction, storyID string, kind domain.FulfillmentKind, inProgress bool, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	column := "print_in_progress"
	if kind == domain.KindNarration {
		column = "narration_in_progress"
	}

	query := `
		UPDATE stories
		SET ` + column + ` = $2, updated_at = $3
		WHERE id = $1
	`

	tag, err := pgxTx.Exec(ctx, query, storyID, inProgress, updatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStoryNotFound
	}

	return nil
}
