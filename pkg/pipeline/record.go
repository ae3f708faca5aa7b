// Package pipeline implements the run/results core: writing a run's
// scored tile table, querying it, exporting it, and recording reviewer
// confirmations. Nothing here depends on a transport or UI.
package pipeline

import (
	"bytes"
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"
)

// Record is one tile's detection outcome: one row in a run's table.
// The parquet schema is the contract with any future real model; keep
// it stable.
type Record struct {
	TileID   string  `parquet:"tile_id" json:"tile_id"`
	Score    float64 `parquet:"score" json:"score"`
	Lat      float64 `parquet:"lat" json:"lat"`
	Lon      float64 `parquet:"lon" json:"lon"`
	ThumbURL string  `parquet:"thumb_url" json:"thumb_url"`
	ImageURL string  `parquet:"image_url" json:"image_url"`
	ModelVer string  `parquet:"model_ver,optional" json:"model_ver,omitempty"`
	RunID    string  `parquet:"run_id" json:"run_id"`
}

// Validate checks the record-level invariants.
func (r Record) Validate() error {
	if r.TileID == "" {
		return Errorf(CodeInvalidArgument, "record has empty tile_id")
	}
	if r.Score < 0 || r.Score > 1 {
		return Errorf(CodeInvalidArgument, "tile %s: score %f out of [0,1]", r.TileID, r.Score)
	}
	if r.RunID == "" {
		return Errorf(CodeInvalidArgument, "tile %s: record has empty run_id", r.TileID)
	}
	return nil
}

// encodeTable serializes records into a parquet table.
func encodeTable(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	w := parquet.NewGenericWriter[Record](&buf)
	if len(records) > 0 {
		if _, err := w.Write(records); err != nil {
			return nil, fmt.Errorf("write parquet rows: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeTable reads all records from a parquet table.
func decodeTable(r io.Reader) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}
	records, err := parquet.Read[Record](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("decode parquet: %w", err)
	}
	return records, nil
}
