package queue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestMemQueue_EnqueueDequeue(t *testing.T) {
	ctx := context.Background()
	q := NewMemQueue(4)
	defer q.Close()

	want := Task{
		JobID:        "job-1",
		DatasetURI:   "s3://datasets/aoi-7",
		ModelVersion: "production",
		Threshold:    0.8,
	}
	if err := q.Enqueue(ctx, want); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	got, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("Dequeue failed: %v", err)
	}
	if diff := cmp.Diff(want, *got); diff != "" {
		t.Errorf("Task mismatch (-want +got):\n%s", diff)
	}
}

func TestMemQueue_DequeueHonorsContext(t *testing.T) {
	q := NewMemQueue(1)
	defer q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := q.Dequeue(ctx)
	if err != context.DeadlineExceeded {
		t.Errorf("Expected DeadlineExceeded, got %v", err)
	}
}

func TestMemQueue_CloseUnblocksFullEnqueue(t *testing.T) {
	ctx := context.Background()
	q := NewMemQueue(1)

	if err := q.Enqueue(ctx, Task{JobID: "job-1"}); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	// A second sender blocks on the full buffer. Close must release it
	// with ErrClosed, not a panic.
	errc := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				errc <- fmt.Errorf("panic: %v", r)
			}
		}()
		errc <- q.Enqueue(ctx, Task{JobID: "job-2"})
	}()

	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case err := <-errc:
		if err != ErrClosed {
			t.Errorf("Expected ErrClosed, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Enqueue still blocked after Close")
	}
}

func TestMemQueue_Closed(t *testing.T) {
	ctx := context.Background()
	q := NewMemQueue(2)

	if err := q.Enqueue(ctx, Task{JobID: "job-1"}); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	q.Close()

	if err := q.Enqueue(ctx, Task{JobID: "job-2"}); err != ErrClosed {
		t.Errorf("Enqueue after Close: expected ErrClosed, got %v", err)
	}

	// Drain the task enqueued before Close.
	if task, err := q.Dequeue(ctx); err != nil || task.JobID != "job-1" {
		t.Errorf("Expected job-1 still dequeuable, got %v/%v", task, err)
	}

	if _, err := q.Dequeue(ctx); err != ErrClosed {
		t.Errorf("Dequeue on drained closed queue: expected ErrClosed, got %v", err)
	}
}
