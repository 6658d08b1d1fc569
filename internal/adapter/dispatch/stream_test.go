package dispatch

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"

	"github.com/fablepress/fulfillment/internal/domain"
	"github.com/fablepress/fulfillment/internal/usecase"
)

func TestStreamDispatcherPublish(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	defer client.Close()

	dispatcher := NewStreamDispatcher(client, "test:jobs")

	id, err := dispatcher.Publish(context.Background(), usecase.Job{
		RequestID:   "req-1",
		OwnerID:     "owner-1",
		StoryID:     "story-1",
		Kind:        domain.KindPrint,
		WorkOrderID: "wo-1",
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if id == "" {
		t.Fatalf("expected message id")
	}

	entries, err := client.XRange(context.Background(), "test:jobs", "-", "+").Result()
	if err != nil {
		t.Fatalf("xrange failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one stream entry, got %d", len(entries))
	}

	values := entries[0].Values
	if values["request_id"] != "req-1" || values["kind"] != "print" || values["work_order_id"] != "wo-1" {
		t.Fatalf("unexpected stream values: %#v", values)
	}
}

func TestStreamDispatcherPublishFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	defer client.Close()

	mr.Close()

	dispatcher := NewStreamDispatcher(client, "test:jobs")
	if _, err := dispatcher.Publish(context.Background(), usecase.Job{RequestID: "req-1"}); err == nil {
		t.Fatalf("expected error when redis is down")
	}
}
