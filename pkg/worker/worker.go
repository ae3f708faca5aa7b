// Package worker consumes run requests from the queue and executes the
// detection pipeline for each. Runs execute in parallel across tasks;
// each run's tile loop is sequential.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/isabela-labs/tortoisefind/pkg/blob"
	"github.com/isabela-labs/tortoisefind/pkg/jobs"
	"github.com/isabela-labs/tortoisefind/pkg/model"
	"github.com/isabela-labs/tortoisefind/pkg/pipeline"
	"github.com/isabela-labs/tortoisefind/pkg/queue"
	"github.com/isabela-labs/tortoisefind/pkg/tlog"
)

// Worker executes run tasks from a queue.
type Worker struct {
	Queue       queue.Queue
	Jobs        *jobs.Store
	Store       blob.Store
	Registry    *model.Registry
	Tiler       model.Tiler
	Thumbs      model.Thumbnailer
	PresignTTL  time.Duration
	Concurrency int
	Log         *tlog.Logger
}

// Run blocks consuming tasks until ctx is cancelled or the queue is
// closed. It drains in-flight runs before returning.
func (w *Worker) Run(ctx context.Context) error {
	log := w.Log
	if log == nil {
		log = tlog.NewNop()
	}

	concurrency := w.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.consume(ctx, log)
		}()
	}
	wg.Wait()
	return ctx.Err()
}

func (w *Worker) consume(ctx context.Context, log *tlog.Logger) {
	for {
		task, err := w.Queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, queue.ErrClosed) {
				return
			}
			log.Warn("dequeue failed", "error", err)
			select {
			case <-time.After(time.Second):
				continue
			case <-ctx.Done():
				return
			}
		}
		w.process(ctx, log, *task)
	}
}

// process executes one run. Failures surface as the job's terminal
// state, never as an error to the consume loop.
func (w *Worker) process(ctx context.Context, log *tlog.Logger, task queue.Task) {
	if err := w.Jobs.MarkRunning(ctx, task.JobID); err != nil {
		log.Warn("mark running failed", "job_id", task.JobID, "error", err)
	}

	scorer, err := w.Registry.Resolve(ctx, task.ModelVersion)
	if err != nil {
		log.Error("model resolution failed", "job_id", task.JobID, "error", err)
		w.fail(ctx, log, task.JobID, err)
		return
	}

	writer := &pipeline.Writer{
		Store:      w.Store,
		Tiler:      w.Tiler,
		Scorer:     scorer,
		Thumbs:     w.Thumbs,
		Progress:   jobs.NewReporter(w.Jobs, task.JobID),
		PresignTTL: w.PresignTTL,
		Log:        log,
	}

	summary, err := writer.Run(ctx, pipeline.RunSpec{
		RunID:        task.JobID,
		DatasetURI:   task.DatasetURI,
		ModelVersion: task.ModelVersion,
		Threshold:    task.Threshold,
	})
	if err != nil {
		log.Error("run failed", "job_id", task.JobID, "error", err)
		w.fail(ctx, log, task.JobID, err)
		return
	}

	if err := w.Jobs.MarkCompleted(ctx, task.JobID, jobs.Result{
		RunID:       summary.RunID,
		RecordCount: summary.RecordCount,
	}); err != nil {
		log.Warn("mark completed failed", "job_id", task.JobID, "error", err)
	}
}

func (w *Worker) fail(ctx context.Context, log *tlog.Logger, jobID string, cause error) {
	if err := w.Jobs.MarkFailed(ctx, jobID, cause); err != nil {
		log.Warn("mark failed failed", "job_id", jobID, "error", err)
	}
}
