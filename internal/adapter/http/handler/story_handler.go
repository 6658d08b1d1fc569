package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fablepress/fulfillment/internal/adapter/http/dto"
	"github.com/fablepress/fulfillment/internal/usecase"
)

// StoryHandler handles story-related HTTP requests.
type StoryHandler struct {
	storyUC *usecase.StoryUseCase
}

// NewStoryHandler creates a new StoryHandler.
func NewStoryHandler(storyUC *usecase.StoryUseCase) *StoryHandler {
	return &StoryHandler{storyUC: storyUC}
}

// Get retrieves one of the owner's stories, including the in-progress flags
// a client needs to disable buttons.
func (h *StoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing story ID", "")
		return
	}

	story, err := h.storyUC.GetStory(r.Context(), ownerID, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.StoryFromDomain(story))
}
