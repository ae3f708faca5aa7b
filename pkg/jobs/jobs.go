// Package jobs tracks run lifecycle metadata in a key-value store.
//
// Job metadata is a best-effort side channel: the durable results table
// in the blob store is the authoritative completion signal, so losing
// this metadata (e.g. a Redis restart) degrades status reporting but
// never corrupts results.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/isabela-labs/tortoisefind/pkg/kv"
)

// State represents the execution state of a job.
type State string

const (
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Result summarizes a completed run.
type Result struct {
	RunID       string `json:"run_id"`
	RecordCount int    `json:"record_count"`
}

// Job represents one queued or executed run.
type Job struct {
	ID         string     `json:"id"`
	State      State      `json:"state"`
	Progress   float64    `json:"progress"` // 0-100, monotonically non-decreasing
	Error      string     `json:"error,omitempty"`
	Result     *Result    `json:"result,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// ErrNotFound is returned when no metadata exists for a job ID.
var ErrNotFound = errors.New("job not found")

// Store persists job metadata as JSON in a kv.Store.
type Store struct {
	kv  kv.Store
	ttl time.Duration
}

// NewStore creates a job store. ttl bounds how long finished job
// metadata is retained; 0 means no expiry.
func NewStore(store kv.Store, ttl time.Duration) *Store {
	return &Store{kv: store, ttl: ttl}
}

func jobKey(id string) string {
	return "jobs/" + id
}

// Create records a new job in the queued state. Creation is atomic: a
// second Create for the same ID fails instead of resetting the job.
func (s *Store) Create(ctx context.Context, id string) (*Job, error) {
	job := &Job{
		ID:        id,
		State:     StateQueued,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("encode job %s: %w", id, err)
	}
	ok, err := s.kv.SetNX(ctx, jobKey(id), data, s.ttl)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("job %s already exists", id)
	}
	return job, nil
}

// Delete removes a job's metadata. Deleting an unknown job is not an
// error.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.kv.Delete(ctx, jobKey(id))
}

// Get retrieves job metadata by ID.
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	data, err := s.kv.Get(ctx, jobKey(id))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return &job, nil
}

// MarkRunning transitions a job to the running state.
func (s *Store) MarkRunning(ctx context.Context, id string) error {
	return s.update(ctx, id, func(job *Job) {
		now := time.Now().UTC()
		job.State = StateRunning
		job.StartedAt = &now
	})
}

// MarkCompleted transitions a job to the completed state with its result.
// Progress is forced to 100.
func (s *Store) MarkCompleted(ctx context.Context, id string, result Result) error {
	return s.update(ctx, id, func(job *Job) {
		now := time.Now().UTC()
		job.State = StateCompleted
		job.Progress = 100
		job.Result = &result
		job.FinishedAt = &now
	})
}

// MarkFailed transitions a job to the failed state with an error message.
func (s *Store) MarkFailed(ctx context.Context, id string, cause error) error {
	return s.update(ctx, id, func(job *Job) {
		now := time.Now().UTC()
		job.State = StateFailed
		if cause != nil {
			job.Error = cause.Error()
		}
		job.FinishedAt = &now
	})
}

// SetProgress records run progress. Progress never goes backwards; a
// lower value than the stored one is ignored.
func (s *Store) SetProgress(ctx context.Context, id string, pct float64) error {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return s.update(ctx, id, func(job *Job) {
		if pct > job.Progress {
			job.Progress = pct
		}
	})
}

func (s *Store) update(ctx context.Context, id string, mutate func(*Job)) error {
	job, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	mutate(job)
	return s.save(ctx, job)
}

func (s *Store) save(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.ID, err)
	}
	return s.kv.Set(ctx, jobKey(job.ID), data, s.ttl)
}

// Reporter is a progress handle scoped to one job. The writer receives
// it as a dependency rather than looking up its job through a global.
// Updates are best-effort: write failures are swallowed because a
// missed progress update is not an error.
type Reporter struct {
	store *Store
	jobID string
}

// NewReporter creates a progress reporter for the given job.
func NewReporter(store *Store, jobID string) *Reporter {
	return &Reporter{store: store, jobID: jobID}
}

// Report records progress, best-effort.
func (r *Reporter) Report(ctx context.Context, pct float64) {
	if r == nil || r.store == nil {
		return
	}
	_ = r.store.SetProgress(ctx, r.jobID, pct)
}
