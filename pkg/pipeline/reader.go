package pipeline

import (
	"context"
	"errors"
	"sort"

	"github.com/isabela-labs/tortoisefind/pkg/blob"
)

// DefaultThreshold is the score cutoff applied when a caller does not
// supply one.
const DefaultThreshold = 0.8

// Query selects a page of positives from a run's table.
type Query struct {
	RunID     string
	Threshold float64
	Page      int // 1-based
	PageSize  int
}

// PageResult is one page of filtered, sorted records plus the total
// count after filtering (before pagination).
type PageResult struct {
	Items []Record `json:"items"`
	Total int      `json:"total"`
}

// Reader serves filtered, sorted, paginated views of a run's table. It
// never mutates the table.
type Reader struct {
	Store blob.Store
}

// Positives loads the run's table and returns the requested page of
// records with score >= threshold, sorted by score descending. Ties are
// broken by tile_id ascending so pagination is reproducible across calls.
func (r *Reader) Positives(ctx context.Context, q Query) (*PageResult, error) {
	if q.Page < 1 {
		return nil, Errorf(CodeInvalidArgument, "page must be >= 1, got %d", q.Page)
	}
	if q.PageSize < 1 {
		return nil, Errorf(CodeInvalidArgument, "page_size must be > 0, got %d", q.PageSize)
	}
	if q.Threshold < 0 || q.Threshold > 1 {
		return nil, Errorf(CodeInvalidArgument, "threshold %f out of [0,1]", q.Threshold)
	}

	records, err := r.load(ctx, q.RunID)
	if err != nil {
		return nil, err
	}

	filtered := records[:0:0]
	for _, rec := range records {
		if rec.Score >= q.Threshold {
			filtered = append(filtered, rec)
		}
	}

	sortRecords(filtered)

	total := len(filtered)
	start := (q.Page - 1) * q.PageSize
	if start > total {
		start = total
	}
	end := start + q.PageSize
	if end > total {
		end = total
	}

	return &PageResult{Items: filtered[start:end], Total: total}, nil
}

// All returns every record of a run in table order, optionally filtered
// by threshold (threshold < 0 disables filtering). Used by the Exporter.
func (r *Reader) All(ctx context.Context, runID string, threshold float64) ([]Record, error) {
	// Validate before touching storage so a bad threshold reports as
	// invalid even when the run does not exist.
	if threshold > 1 {
		return nil, Errorf(CodeInvalidArgument, "threshold %f out of [0,1]", threshold)
	}

	records, err := r.load(ctx, runID)
	if err != nil {
		return nil, err
	}
	if threshold < 0 {
		return records, nil
	}

	filtered := records[:0:0]
	for _, rec := range records {
		if rec.Score >= threshold {
			filtered = append(filtered, rec)
		}
	}
	return filtered, nil
}

func (r *Reader) load(ctx context.Context, runID string) ([]Record, error) {
	if runID == "" {
		return nil, Errorf(CodeInvalidArgument, "run_id is required")
	}

	rc, err := r.Store.Download(ctx, blob.ResultsKey(runID))
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil, Errorf(CodeNotFound, "no results table for run %s", runID)
		}
		return nil, New(CodeStorageFailure, err)
	}
	defer rc.Close()

	records, err := decodeTable(rc)
	if err != nil {
		return nil, New(CodeStorageFailure, err)
	}
	return records, nil
}

// sortRecords orders by score descending, ties broken by tile_id
// ascending.
func sortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Score != records[j].Score {
			return records[i].Score > records[j].Score
		}
		return records[i].TileID < records[j].TileID
	})
}
