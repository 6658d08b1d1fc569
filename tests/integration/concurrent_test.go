package integration

import (
	"context"
	"sync"
	"testing"

	"github.com/fablepress/fulfillment/internal/domain"
	"github.com/fablepress/fulfillment/internal/usecase"
	"github.com/fablepress/fulfillment/tests/testutil"
)

// Two concurrent charges against a balance that covers only one of them.
// The conditional decrement must let exactly one through.
func TestConcurrentFulfillments_OneWins(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	db := testutil.NewTestDB(t)
	defer db.Cleanup()
	db.TruncateAll(ctx)

	stub := workOrderStub(t)
	defer stub.Close()

	db.SeedBalance(ctx, "owner-1", 10)
	for _, id := range []string{"story-1", "story-2"} {
		db.SeedStory(ctx, &domain.Story{
			ID:      id,
			OwnerID: "owner-1",
			Title:   "Story " + id,
			Status:  domain.StoryStatusCompleted,
		})
	}

	uc := newSagaUnderTest(t, db, stub.URL)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, storyID := range []string{"story-1", "story-2"} {
		wg.Add(1)
		go func(i int, storyID string) {
			defer wg.Done()
			_, results[i] = uc.RequestFulfillment(ctx, usecase.RequestFulfillmentInput{
				OwnerID: "owner-1",
				StoryID: storyID,
				Kind:    domain.KindPrint,
			})
		}(i, storyID)
	}
	wg.Wait()

	var succeeded, insufficient int
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		default:
			if _, ok := domain.AsInsufficientCredits(err); ok {
				insufficient++
			} else {
				t.Errorf("unexpected error: %v", err)
			}
		}
	}

	if succeeded != 1 || insufficient != 1 {
		t.Fatalf("expected exactly one success and one rejection, got %d/%d", succeeded, insufficient)
	}
	if got := db.Balance(ctx, "owner-1"); got != 2 {
		t.Errorf("expected final balance 2, got %d", got)
	}
}
