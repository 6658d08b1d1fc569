package usecase

import (
	"context"

	"github.com/fablepress/fulfillment/internal/domain"
)

// StoryUseCase exposes the read-only story surface the fulfillment flow
// needs. Story authoring lives in another service.
type StoryUseCase struct {
	storyRepo StoryRepository
}

// NewStoryUseCase creates a new StoryUseCase.
func NewStoryUseCase(storyRepo StoryRepository) *StoryUseCase {
	return &StoryUseCase{storyRepo: storyRepo}
}

// GetStory retrieves a story, scoped to its owner. Ownership failures
// surface as not found.
func (uc *StoryUseCase) GetStory(ctx context.Context, ownerID, id string) (*domain.Story, error) {
	story, err := uc.storyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if story.OwnerID != ownerID {
		return nil, domain.ErrStoryNotFound
	}

	return story, nil
}
