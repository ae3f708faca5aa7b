package pipeline

import (
	"bytes"
	"context"
	"time"

	"github.com/isabela-labs/tortoisefind/pkg/blob"
	"github.com/isabela-labs/tortoisefind/pkg/jobs"
	"github.com/isabela-labs/tortoisefind/pkg/model"
	"github.com/isabela-labs/tortoisefind/pkg/tlog"
)

// progressEvery is how many tiles are processed between progress updates.
const progressEvery = 25

// RunSpec describes one run request.
type RunSpec struct {
	RunID        string
	DatasetURI   string
	ModelVersion string
	// Threshold is accepted for API compatibility but not applied at
	// write time: every tile is written regardless of score, and
	// filtering is the Reader's concern.
	Threshold float64
}

// Summary reports a completed run.
type Summary struct {
	RunID       string `json:"run_id"`
	RecordCount int    `json:"record_count"`
}

// Writer produces a run's results table: one record per tile, each with
// an uploaded thumbnail, persisted as a single parquet object under the
// run's key. A run's table is append-only during production and read-only
// after; the Writer is the only component that ever writes it.
type Writer struct {
	Store      blob.Store
	Tiler      model.Tiler
	Scorer     model.Scorer
	Thumbs     model.Thumbnailer
	Progress   *jobs.Reporter
	PresignTTL time.Duration
	Log        *tlog.Logger
}

// Run executes the full tile loop and persists the table. Any tile-level
// failure aborts the whole run: a partial table has ambiguous
// completeness semantics, so nothing is written unless every tile made
// it. The absence of a table at the results key is the failure signal;
// no cleanup pass is attempted.
func (w *Writer) Run(ctx context.Context, spec RunSpec) (*Summary, error) {
	log := w.Log
	if log == nil {
		log = tlog.NewNop()
	}
	presignTTL := w.PresignTTL
	if presignTTL <= 0 {
		presignTTL = time.Hour
	}

	tiles, err := w.Tiler.Tiles(ctx, spec.DatasetURI)
	if err != nil {
		return nil, New(CodeModelFailure, err)
	}

	log.Info("run started",
		"run_id", spec.RunID,
		"dataset", spec.DatasetURI,
		"model", w.Scorer.Version(),
		"tiles", len(tiles))

	records := make([]Record, 0, len(tiles))
	for i, tile := range tiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		det, err := w.Scorer.Score(ctx, tile)
		if err != nil {
			return nil, New(CodeModelFailure, err)
		}

		thumbData, contentType, err := w.Thumbs.Render(tile, det)
		if err != nil {
			return nil, New(CodeModelFailure, err)
		}

		thumbKey := blob.ThumbKey(spec.RunID, tile.ID)
		if _, err := w.Store.Upload(ctx, thumbKey, bytes.NewReader(thumbData), contentType, nil); err != nil {
			return nil, New(CodeStorageFailure, err)
		}

		thumbURL, err := w.Store.GetPresignedURL(ctx, thumbKey, presignTTL)
		if err != nil {
			return nil, New(CodeStorageFailure, err)
		}

		record := Record{
			TileID:   tile.ID,
			Score:    det.Score,
			Lat:      det.Lat,
			Lon:      det.Lon,
			ThumbURL: thumbURL,
			// The stand-in has no separate full-resolution source; a
			// real tiler must point this at the original imagery.
			ImageURL: thumbURL,
			ModelVer: w.Scorer.Version(),
			RunID:    spec.RunID,
		}
		if err := record.Validate(); err != nil {
			return nil, New(CodeModelFailure, err)
		}
		records = append(records, record)

		if i%progressEvery == 0 {
			w.Progress.Report(ctx, float64(i)/float64(len(tiles))*100)
		}
	}

	table, err := encodeTable(records)
	if err != nil {
		return nil, New(CodeStorageFailure, err)
	}
	if _, err := w.Store.Upload(ctx, blob.ResultsKey(spec.RunID), bytes.NewReader(table), "application/octet-stream", nil); err != nil {
		return nil, New(CodeStorageFailure, err)
	}

	w.Progress.Report(ctx, 100)

	log.Info("run completed", "run_id", spec.RunID, "records", len(records))

	return &Summary{RunID: spec.RunID, RecordCount: len(records)}, nil
}
