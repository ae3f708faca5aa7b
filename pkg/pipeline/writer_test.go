package pipeline

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/isabela-labs/tortoisefind/pkg/blob"
	"github.com/isabela-labs/tortoisefind/pkg/jobs"
	"github.com/isabela-labs/tortoisefind/pkg/kv"
	"github.com/isabela-labs/tortoisefind/pkg/model"
)

func newTestWriter(store blob.Store, tiles int) *Writer {
	return &Writer{
		Store:  store,
		Tiler:  &model.SyntheticTiler{Count: tiles, Seed: 11},
		Scorer: model.NewSyntheticScorer("production", 11),
		Thumbs: &model.ScoreThumbnailer{Size: 8},
	}
}

func TestWriter_Run(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemStore("artifacts")
	jobStore := jobs.NewStore(kv.NewMemStore(), 0)
	jobStore.Create(ctx, "run-1")

	w := newTestWriter(store, 100)
	w.Progress = jobs.NewReporter(jobStore, "run-1")

	summary, err := w.Run(ctx, RunSpec{RunID: "run-1", DatasetURI: "s3://datasets/aoi-7", Threshold: 0.8})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.RunID != "run-1" || summary.RecordCount != 100 {
		t.Errorf("Unexpected summary: %+v", summary)
	}

	// The table exists at the run-scoped results key.
	rc, err := store.Download(ctx, blob.ResultsKey("run-1"))
	if err != nil {
		t.Fatalf("Results table missing: %v", err)
	}
	records, err := decodeTable(rc)
	rc.Close()
	if err != nil {
		t.Fatalf("decodeTable failed: %v", err)
	}
	if len(records) != 100 {
		t.Fatalf("Expected 100 records, got %d", len(records))
	}

	// Every record satisfies the invariants; tile ids are unique.
	seen := make(map[string]bool)
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			t.Errorf("Invalid record: %v", err)
		}
		if seen[rec.TileID] {
			t.Errorf("Duplicate tile_id %s", rec.TileID)
		}
		seen[rec.TileID] = true
		if rec.RunID != "run-1" {
			t.Errorf("Record %s has wrong run_id %s", rec.TileID, rec.RunID)
		}
		if rec.ModelVer != "production" {
			t.Errorf("Record %s has wrong model_ver %s", rec.TileID, rec.ModelVer)
		}
		if rec.ThumbURL == "" || rec.ImageURL == "" {
			t.Errorf("Record %s missing URLs", rec.TileID)
		}
	}

	// One thumbnail per tile.
	thumbs, err := store.List(ctx, blob.ThumbsPrefix("run-1"))
	if err != nil {
		t.Fatalf("List thumbs failed: %v", err)
	}
	if len(thumbs) != 100 {
		t.Errorf("Expected 100 thumbnails, got %d", len(thumbs))
	}

	// Final progress is always 100.
	job, err := jobStore.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get job failed: %v", err)
	}
	if job.Progress != 100 {
		t.Errorf("Expected progress 100, got %f", job.Progress)
	}
}

type failingScorer struct {
	after int
	n     int
}

func (s *failingScorer) Score(ctx context.Context, tile model.Tile) (model.Detection, error) {
	s.n++
	if s.n > s.after {
		return model.Detection{}, errors.New("inference backend unavailable")
	}
	return model.Detection{Score: 0.5, Lat: tile.Lat, Lon: tile.Lon}, nil
}

func (s *failingScorer) Version() string { return "production" }

func TestWriter_ModelFailureAbortsRun(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemStore("artifacts")

	w := newTestWriter(store, 50)
	w.Scorer = &failingScorer{after: 10}

	_, err := w.Run(ctx, RunSpec{RunID: "run-1", DatasetURI: "s3://datasets/aoi-7"})
	if !IsCode(err, CodeModelFailure) {
		t.Fatalf("Expected model_failure, got %v", err)
	}

	// No partial table may exist: its absence is the failure signal.
	if _, err := store.Download(ctx, blob.ResultsKey("run-1")); !errors.Is(err, blob.ErrNotFound) {
		t.Errorf("Expected no results table, got %v", err)
	}
}

// resultsRejectingStore fails uploads of results tables only.
type resultsRejectingStore struct {
	blob.Store
}

func (s *resultsRejectingStore) Upload(ctx context.Context, key string, reader io.Reader, contentType string, metadata map[string]string) (*blob.Artifact, error) {
	if strings.HasSuffix(key, "results.parquet") {
		return nil, errors.New("connection reset")
	}
	return s.Store.Upload(ctx, key, reader, contentType, metadata)
}

func TestWriter_StorageFailure(t *testing.T) {
	ctx := context.Background()
	store := &resultsRejectingStore{Store: blob.NewMemStore("artifacts")}

	w := newTestWriter(store, 10)

	_, err := w.Run(ctx, RunSpec{RunID: "run-1", DatasetURI: "s3://datasets/aoi-7"})
	if !IsCode(err, CodeStorageFailure) {
		t.Fatalf("Expected storage_failure, got %v", err)
	}
}

func TestWriter_ConcurrentRunsIndependent(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemStore("artifacts")

	done := make(chan error, 2)
	for _, runID := range []string{"run-a", "run-b"} {
		go func(id string) {
			w := newTestWriter(store, 30)
			_, err := w.Run(ctx, RunSpec{RunID: id, DatasetURI: "s3://datasets/aoi-7"})
			done <- err
		}(runID)
	}
	for i := 0; i < 2; i++ {
		if err := <-done; err != nil {
			t.Fatalf("Run failed: %v", err)
		}
	}

	for _, runID := range []string{"run-a", "run-b"} {
		rc, err := store.Download(ctx, blob.ResultsKey(runID))
		if err != nil {
			t.Fatalf("Table for %s missing: %v", runID, err)
		}
		records, err := decodeTable(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("decodeTable failed: %v", err)
		}
		if len(records) != 30 {
			t.Errorf("Run %s: expected 30 records, got %d", runID, len(records))
		}
		for _, rec := range records {
			if rec.RunID != runID {
				t.Errorf("Record %s leaked into run %s", rec.TileID, runID)
			}
		}
	}
}
