package dispatch

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/fablepress/fulfillment/internal/usecase"
)

// StreamDispatcher implements usecase.JobDispatcher on a Redis stream. The
// generation pipeline consumes the stream with at-least-once semantics; the
// saga only cares that XADD was acknowledged.
type StreamDispatcher struct {
	client *redis.Client
	stream string
}

// NewStreamDispatcher creates a new StreamDispatcher.
func NewStreamDispatcher(client *redis.Client, stream string) *StreamDispatcher {
	if stream == "" {
		stream = "fulfillment:jobs"
	}

	return &StreamDispatcher{
		client: client,
		stream: stream,
	}
}

// Publish appends the job to the stream and returns the message ID.
func (d *StreamDispatcher) Publish(ctx context.Context, job usecase.Job) (string, error) {
	id, err := d.client.XAdd(ctx, &redis.XAddArgs{
		Stream: d.stream,
		Values: map[string]any{
			"request_id":    job.RequestID,
			"owner_id":      job.OwnerID,
			"story_id":      job.StoryID,
			"kind":          string(job.Kind),
			"work_order_id": job.WorkOrderID,
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to publish job: %w", err)
	}

	return id, nil
}
