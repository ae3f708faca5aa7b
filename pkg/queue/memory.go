package queue

import (
	"context"
	"sync"
)

// MemQueue is an in-process Queue implementation backed by a buffered
// channel. It serves tests and single-process deployments where the API
// server hosts an embedded worker.
//
// Closure is signalled on a separate done channel and the task channel
// is never closed, so a sender blocked on a full buffer gets ErrClosed
// instead of a send-on-closed-channel panic.
type MemQueue struct {
	tasks chan Task
	done  chan struct{}
	once  sync.Once
}

// NewMemQueue creates a MemQueue with the given buffer capacity.
func NewMemQueue(capacity int) *MemQueue {
	if capacity <= 0 {
		capacity = 128
	}
	return &MemQueue{
		tasks: make(chan Task, capacity),
		done:  make(chan struct{}),
	}
}

// Enqueue submits a task. Blocks if the buffer is full.
func (q *MemQueue) Enqueue(ctx context.Context, task Task) error {
	select {
	case <-q.done:
		return ErrClosed
	default:
	}

	select {
	case q.tasks <- task:
		return nil
	case <-q.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue blocks until a task is available or ctx is cancelled. Tasks
// enqueued before Close remain dequeuable.
func (q *MemQueue) Dequeue(ctx context.Context) (*Task, error) {
	// Prefer buffered tasks over closure so Close drains cleanly.
	select {
	case task := <-q.tasks:
		return &task, nil
	default:
	}

	select {
	case task := <-q.tasks:
		return &task, nil
	case <-q.done:
		// A task may have landed between the fast path and closure.
		select {
		case task := <-q.tasks:
			return &task, nil
		default:
		}
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close signals closure to pending and future senders and receivers.
func (q *MemQueue) Close() error {
	q.once.Do(func() { close(q.done) })
	return nil
}

// Ensure MemQueue implements Queue.
var _ Queue = (*MemQueue)(nil)
