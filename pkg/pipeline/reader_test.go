package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/isabela-labs/tortoisefind/pkg/blob"
)

// writeTable persists a results table for a run directly, bypassing the
// Writer, so reader tests control the exact rows.
func writeTable(t *testing.T, store blob.Store, runID string, records []Record) {
	t.Helper()
	data, err := encodeTable(records)
	if err != nil {
		t.Fatalf("encodeTable failed: %v", err)
	}
	if _, err := store.Upload(context.Background(), blob.ResultsKey(runID), bytes.NewReader(data), "application/octet-stream", nil); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
}

func syntheticRecords(runID string, n int, seed int64) []Record {
	rng := rand.New(rand.NewSource(seed))
	records := make([]Record, n)
	for i := range records {
		records[i] = Record{
			TileID:   fmt.Sprintf("tile-%05d", i),
			Score:    rng.Float64(),
			Lat:      -0.5 + rng.Float64()*0.5,
			Lon:      -90.5 + rng.Float64()*0.5,
			ThumbURL: "mem://artifacts/thumb",
			ImageURL: "mem://artifacts/thumb",
			ModelVer: "production",
			RunID:    runID,
		}
	}
	return records
}

func TestReader_ThresholdAndTotal(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemStore("artifacts")
	records := syntheticRecords("run-1", 500, 3)
	writeTable(t, store, "run-1", records)

	reader := &Reader{Store: store}

	want := 0
	for _, rec := range records {
		if rec.Score >= 0.8 {
			want++
		}
	}

	page, err := reader.Positives(ctx, Query{RunID: "run-1", Threshold: 0.8, Page: 1, PageSize: 40})
	if err != nil {
		t.Fatalf("Positives failed: %v", err)
	}
	if page.Total != want {
		t.Errorf("Expected total %d, got %d", want, page.Total)
	}
	if len(page.Items) > 40 {
		t.Errorf("Page size exceeded: %d", len(page.Items))
	}
	for i := 1; i < len(page.Items); i++ {
		if page.Items[i-1].Score < page.Items[i].Score {
			t.Errorf("Scores not non-increasing at %d", i)
		}
	}
}

func TestReader_ThresholdMonotonicity(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemStore("artifacts")
	writeTable(t, store, "run-1", syntheticRecords("run-1", 300, 5))

	reader := &Reader{Store: store}

	prev := -1
	for _, threshold := range []float64{0.2, 0.5, 0.8, 0.95} {
		page, err := reader.Positives(ctx, Query{RunID: "run-1", Threshold: threshold, Page: 1, PageSize: 1000})
		if err != nil {
			t.Fatalf("Positives(%f) failed: %v", threshold, err)
		}
		if prev >= 0 && page.Total > prev {
			t.Errorf("Raising threshold to %f grew total from %d to %d", threshold, prev, page.Total)
		}
		prev = page.Total
	}
}

func TestReader_PaginationCoversAllWithoutDuplicates(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemStore("artifacts")
	writeTable(t, store, "run-1", syntheticRecords("run-1", 137, 9))

	reader := &Reader{Store: store}
	const pageSize = 25

	var all []Record
	for page := 1; ; page++ {
		res, err := reader.Positives(ctx, Query{RunID: "run-1", Threshold: 0.3, Page: page, PageSize: pageSize})
		if err != nil {
			t.Fatalf("Page %d failed: %v", page, err)
		}
		if len(res.Items) == 0 {
			break
		}
		all = append(all, res.Items...)
	}

	res, _ := reader.Positives(ctx, Query{RunID: "run-1", Threshold: 0.3, Page: 1, PageSize: 1000})
	if len(all) != res.Total {
		t.Fatalf("Concatenated pages have %d items, total says %d", len(all), res.Total)
	}
	if diff := cmp.Diff(res.Items, all); diff != "" {
		t.Errorf("Concatenated pages differ from full sorted set (-want +got):\n%s", diff)
	}

	seen := make(map[string]bool)
	for _, rec := range all {
		if seen[rec.TileID] {
			t.Errorf("Duplicate %s across pages", rec.TileID)
		}
		seen[rec.TileID] = true
	}
}

func TestReader_TiesBrokenByTileID(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemStore("artifacts")

	records := []Record{
		{TileID: "tile-00002", Score: 0.9, RunID: "run-1", ThumbURL: "x", ImageURL: "x"},
		{TileID: "tile-00000", Score: 0.9, RunID: "run-1", ThumbURL: "x", ImageURL: "x"},
		{TileID: "tile-00001", Score: 0.9, RunID: "run-1", ThumbURL: "x", ImageURL: "x"},
	}
	writeTable(t, store, "run-1", records)

	reader := &Reader{Store: store}
	page, err := reader.Positives(ctx, Query{RunID: "run-1", Threshold: 0.5, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("Positives failed: %v", err)
	}

	want := []string{"tile-00000", "tile-00001", "tile-00002"}
	for i, rec := range page.Items {
		if rec.TileID != want[i] {
			t.Errorf("Position %d: expected %s, got %s", i, want[i], rec.TileID)
		}
	}
}

func TestReader_PageBeyondRange(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemStore("artifacts")
	writeTable(t, store, "run-1", syntheticRecords("run-1", 10, 1))

	reader := &Reader{Store: store}
	page, err := reader.Positives(ctx, Query{RunID: "run-1", Threshold: 0, Page: 99, PageSize: 40})
	if err != nil {
		t.Fatalf("Positives failed: %v", err)
	}
	if len(page.Items) != 0 {
		t.Errorf("Expected empty items, got %d", len(page.Items))
	}
	if page.Total != 10 {
		t.Errorf("Total must still reflect full filtered count, got %d", page.Total)
	}
}

func TestReader_InvalidArguments(t *testing.T) {
	reader := &Reader{Store: blob.NewMemStore("artifacts")}
	ctx := context.Background()

	cases := []Query{
		{RunID: "run-1", Threshold: 0.8, Page: 0, PageSize: 40},
		{RunID: "run-1", Threshold: 0.8, Page: 1, PageSize: 0},
		{RunID: "run-1", Threshold: 0.8, Page: 1, PageSize: -3},
		{RunID: "run-1", Threshold: 1.5, Page: 1, PageSize: 40},
		{RunID: "run-1", Threshold: -0.1, Page: 1, PageSize: 40},
	}
	for _, q := range cases {
		if _, err := reader.Positives(ctx, q); !IsCode(err, CodeInvalidArgument) {
			t.Errorf("Query %+v: expected invalid_argument, got %v", q, err)
		}
	}
}

func TestReader_AllInvalidThresholdBeforeLoad(t *testing.T) {
	reader := &Reader{Store: blob.NewMemStore("artifacts")}

	// The run does not exist; an out-of-range threshold must still
	// report as invalid, not as a missing run.
	_, err := reader.All(context.Background(), "ghost", 1.5)
	if !IsCode(err, CodeInvalidArgument) {
		t.Errorf("Expected invalid_argument, got %v", err)
	}
}

func TestReader_UnknownRun(t *testing.T) {
	reader := &Reader{Store: blob.NewMemStore("artifacts")}

	_, err := reader.Positives(context.Background(), Query{RunID: "ghost", Threshold: 0.8, Page: 1, PageSize: 40})
	if !IsCode(err, CodeNotFound) {
		t.Errorf("Expected not_found, got %v", err)
	}
}
