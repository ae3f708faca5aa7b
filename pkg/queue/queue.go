// Package queue provides the run request queue that decouples the API
// from run execution. The API enqueues tasks; worker processes dequeue
// and execute them.
package queue

import (
	"context"
	"errors"
)

// Task is one run request handed from the API to a worker. JobID doubles
// as the run ID: every artifact the run produces is keyed by it.
type Task struct {
	JobID        string  `json:"job_id"`
	DatasetURI   string  `json:"dataset_uri"`
	ModelVersion string  `json:"model_version"`
	Threshold    float64 `json:"threshold"`
}

// ErrClosed is returned by Dequeue once the queue has been closed.
var ErrClosed = errors.New("queue closed")

// Queue defines the run request queue interface.
type Queue interface {
	// Enqueue submits a task for execution.
	Enqueue(ctx context.Context, task Task) error

	// Dequeue blocks until a task is available, the context is
	// cancelled, or the queue is closed.
	Dequeue(ctx context.Context) (*Task, error)

	// Close releases the queue's resources.
	Close() error
}
