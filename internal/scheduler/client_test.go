package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
)

type testSchedulerConfig struct {
	redisURL string
}

func (c testSchedulerConfig) GetRedisURL() string       { return c.redisURL }
func (c testSchedulerConfig) GetRedisTLSInsecure() bool { return false }
func (c testSchedulerConfig) GetAsynqQueueName() string { return "indexing" }
func (c testSchedulerConfig) GetAsynqConcurrency() int  { return 2 }

func newTestClient(t *testing.T) *Client {
	t.Helper()
	srv := miniredis.RunT(t)

	client, err := NewClient(testSchedulerConfig{redisURL: "redis://" + srv.Addr()})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(testSchedulerConfig{}); err == nil {
		t.Fatal("expected an error without a redis url")
	}
}

func TestEnqueueReindex(t *testing.T) {
	client := newTestClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	taskID, err := client.EnqueueReindex(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if taskID == "" {
		t.Fatal("expected a task id")
	}
}

func TestEnqueueReindexCollapsesDuplicates(t *testing.T) {
	client := newTestClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.EnqueueReindex(ctx); err != nil {
		t.Fatalf("unexpected error on first enqueue: %v", err)
	}

	_, err := client.EnqueueReindex(ctx)
	if !errors.Is(err, asynq.ErrDuplicateTask) {
		t.Fatalf("expected duplicate task error, got %v", err)
	}
}

func TestEnqueueIndexListing(t *testing.T) {
	client := newTestClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	taskID, err := client.EnqueueIndexListing(ctx, "3f1f9e04-6f4e-4b86-9d55-8e5f7b8a1c01", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if taskID == "" {
		t.Fatal("expected a task id")
	}
}

func TestTaskPayloadRoundTrip(t *testing.T) {
	task, err := NewIndexListingTask(IndexListingPayload{ListingID: "abc", Content: "custom text"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	payload, err := ParseIndexListingPayload(task)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.ListingID != "abc" || payload.Content != "custom text" {
		t.Fatalf("expected payload round-tripped, got %+v", payload)
	}
}
