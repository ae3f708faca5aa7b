// Package blob provides artifact storage for detection runs using
// S3-compatible storage.
package blob

import (
	"context"
	"io"
	"time"
)

// Artifact describes one stored object: a results table, a thumbnail,
// a confirmation record, or an export file.
type Artifact struct {
	Key          string            `json:"key"` // run-scoped key, see paths.go
	Bucket       string            `json:"bucket"`
	Size         int64             `json:"size"`
	ContentType  string            `json:"content_type"`
	LastModified time.Time         `json:"last_modified"`
	Metadata     map[string]string `json:"metadata"`
	URL          string            `json:"url,omitempty"` // presigned URL, when requested
}

// Store is the object storage surface the pipeline needs.
// The blob store is the single source of truth for run results: the
// presence of a complete results table at its run-scoped key is the
// authoritative signal that a run finished.
type Store interface {
	// Upload streams data into the store under key.
	Upload(ctx context.Context, key string, reader io.Reader, contentType string, metadata map[string]string) (*Artifact, error)

	// Download opens an artifact for reading. Returns ErrNotFound if the
	// key does not exist.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// GetPresignedURL returns a time-limited download URL so export
	// files can be fetched without proxying bytes through the API.
	GetPresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)

	// List returns all artifacts under a prefix, typically
	// RunPrefix(runID) to enumerate everything a run produced.
	List(ctx context.Context, prefix string) ([]*Artifact, error)

	// DeletePrefix removes every artifact under a prefix. Purging a run
	// deletes its whole RunPrefix in one call.
	DeletePrefix(ctx context.Context, prefix string) error

	// EnsureBucket creates the bucket if it does not already exist.
	EnsureBucket(ctx context.Context) error
}
