package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/isabela-labs/tortoisefind/pkg/blob"
	"github.com/isabela-labs/tortoisefind/pkg/jobs"
	"github.com/isabela-labs/tortoisefind/pkg/kv"
	"github.com/isabela-labs/tortoisefind/pkg/model"
	"github.com/isabela-labs/tortoisefind/pkg/queue"
)

func newTestWorker(store blob.Store, q queue.Queue, jobStore *jobs.Store) *Worker {
	return &Worker{
		Queue:       q,
		Jobs:        jobStore,
		Store:       store,
		Registry:    model.NewRegistry(store).WithSeed(21),
		Tiler:       &model.SyntheticTiler{Count: 20, Seed: 21},
		Thumbs:      &model.ScoreThumbnailer{Size: 8},
		Concurrency: 2,
	}
}

func waitForState(t *testing.T, jobStore *jobs.Store, id string, want jobs.State) *jobs.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := jobStore.Get(context.Background(), id)
		if err == nil && job.State == want {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Job %s never reached state %s", id, want)
	return nil
}

func TestWorker_ProcessesTask(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := blob.NewMemStore("artifacts")
	q := queue.NewMemQueue(4)
	jobStore := jobs.NewStore(kv.NewMemStore(), 0)

	jobStore.Create(ctx, "job-1")
	q.Enqueue(ctx, queue.Task{JobID: "job-1", DatasetURI: "s3://datasets/aoi-7", ModelVersion: "production", Threshold: 0.8})

	w := newTestWorker(store, q, jobStore)
	go w.Run(ctx)

	job := waitForState(t, jobStore, "job-1", jobs.StateCompleted)
	if job.Result == nil || job.Result.RecordCount != 20 {
		t.Errorf("Unexpected result: %+v", job.Result)
	}
	if job.Progress != 100 {
		t.Errorf("Expected final progress 100, got %f", job.Progress)
	}

	// The completed run's table is in place.
	if _, err := store.Download(ctx, blob.ResultsKey("job-1")); err != nil {
		t.Errorf("Results table missing: %v", err)
	}
}

type brokenTiler struct{}

func (brokenTiler) Tiles(ctx context.Context, datasetURI string) ([]model.Tile, error) {
	return nil, errors.New("dataset unreadable")
}

func TestWorker_FailedRunMarksJobFailed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := blob.NewMemStore("artifacts")
	q := queue.NewMemQueue(4)
	jobStore := jobs.NewStore(kv.NewMemStore(), 0)

	jobStore.Create(ctx, "job-1")
	q.Enqueue(ctx, queue.Task{JobID: "job-1", DatasetURI: "s3://datasets/broken"})

	w := newTestWorker(store, q, jobStore)
	w.Tiler = brokenTiler{}
	go w.Run(ctx)

	job := waitForState(t, jobStore, "job-1", jobs.StateFailed)
	if job.Error == "" {
		t.Error("Failed job should carry an error message")
	}

	if _, err := store.Download(ctx, blob.ResultsKey("job-1")); !errors.Is(err, blob.ErrNotFound) {
		t.Errorf("Failed run must leave no table, got %v", err)
	}
}

func TestWorker_ParallelAcrossRuns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := blob.NewMemStore("artifacts")
	q := queue.NewMemQueue(8)
	jobStore := jobs.NewStore(kv.NewMemStore(), 0)

	ids := []string{"job-1", "job-2", "job-3"}
	for _, id := range ids {
		jobStore.Create(ctx, id)
		q.Enqueue(ctx, queue.Task{JobID: id, DatasetURI: "s3://datasets/aoi-7"})
	}

	w := newTestWorker(store, q, jobStore)
	go w.Run(ctx)

	for _, id := range ids {
		waitForState(t, jobStore, id, jobs.StateCompleted)
	}
}

func TestWorker_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	w := newTestWorker(blob.NewMemStore("artifacts"), queue.NewMemQueue(1), jobs.NewStore(kv.NewMemStore(), 0))

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Worker did not stop after cancel")
	}
}
