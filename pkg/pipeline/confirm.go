package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/isabela-labs/tortoisefind/pkg/blob"
)

// Selection is one reviewer decision for a tile.
type Selection struct {
	TileID    string `json:"tile_id"`
	Confirmed bool   `json:"confirmed"`
}

// Confirmations is the side artifact recording a reviewer's decisions
// for a run. It never touches the results table.
type Confirmations struct {
	RunID      string      `json:"run_id"`
	Selections []Selection `json:"selections"`
}

// ConfirmationSink persists reviewer decisions at the run-scoped
// confirmations key. Each Save overwrites the previous artifact for the
// run: last write wins, no merge across calls.
type ConfirmationSink struct {
	Store blob.Store
}

// Save records a batch of selections for a run.
func (s *ConfirmationSink) Save(ctx context.Context, runID string, selections []Selection) error {
	if runID == "" {
		return Errorf(CodeInvalidArgument, "run_id is required")
	}
	if selections == nil {
		selections = []Selection{}
	}

	data, err := json.MarshalIndent(Confirmations{RunID: runID, Selections: selections}, "", "  ")
	if err != nil {
		return New(CodeStorageFailure, err)
	}

	if _, err := s.Store.Upload(ctx, blob.ConfirmationsKey(runID), bytes.NewReader(data), "application/json", nil); err != nil {
		return New(CodeStorageFailure, err)
	}
	return nil
}

// Load reads the confirmations recorded for a run.
func (s *ConfirmationSink) Load(ctx context.Context, runID string) (*Confirmations, error) {
	rc, err := s.Store.Download(ctx, blob.ConfirmationsKey(runID))
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil, Errorf(CodeNotFound, "no confirmations for run %s", runID)
		}
		return nil, New(CodeStorageFailure, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, New(CodeStorageFailure, err)
	}

	var c Confirmations
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, New(CodeStorageFailure, err)
	}
	return &c, nil
}
