package model

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/isabela-labs/tortoisefind/pkg/blob"
)

// Metadata describes a model version stored in the blob store under
// models/{version}/metadata.json.
type Metadata struct {
	Version     string  `json:"version"`
	Framework   string  `json:"framework,omitempty"`
	TrainedOn   string  `json:"trained_on,omitempty"`
	MapAt50     float64 `json:"map_at_50,omitempty"`
	Description string  `json:"description,omitempty"`
}

// Registry resolves a model version label to a Scorer. Until real model
// loading exists, every version resolves to the synthetic stand-in; the
// stored metadata only pins the version string recorded on each result.
type Registry struct {
	store blob.Store
	seed  int64
}

// NewRegistry creates a registry over the given blob store.
func NewRegistry(store blob.Store) *Registry {
	return &Registry{store: store}
}

// WithSeed makes resolved scorers deterministic. Intended for tests.
func (r *Registry) WithSeed(seed int64) *Registry {
	r.seed = seed
	return r
}

// Resolve returns the scorer for a version label. The label defaults to
// "production". A stored metadata record overrides the label with its
// canonical version string; a missing record is not an error.
func (r *Registry) Resolve(ctx context.Context, version string) (Scorer, error) {
	if version == "" {
		version = "production"
	}

	meta, err := r.metadata(ctx, version)
	if err != nil {
		return nil, err
	}
	if meta != nil && meta.Version != "" {
		version = meta.Version
	}

	return NewSyntheticScorer(version, r.seed), nil
}

func (r *Registry) metadata(ctx context.Context, version string) (*Metadata, error) {
	rc, err := r.store.Download(ctx, blob.ModelMetadataKey(version))
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}
