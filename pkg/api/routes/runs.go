package routes

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/isabela-labs/tortoisefind/pkg/api/schemas"
	"github.com/isabela-labs/tortoisefind/pkg/api/services"
	"github.com/isabela-labs/tortoisefind/pkg/blob"
	"github.com/isabela-labs/tortoisefind/pkg/jobs"
	"github.com/isabela-labs/tortoisefind/pkg/pipeline"
	"github.com/isabela-labs/tortoisefind/pkg/queue"
)

// StartRunInput defines the input for starting a run
type StartRunInput struct {
	Body schemas.StartRunRequest
}

// StartRunOutput is the response for starting a run
type StartRunOutput struct {
	Body schemas.StartRunResponse
}

// GetStatusInput defines the input for polling run status
type GetStatusInput struct {
	JobID string `path:"jobId" doc:"Job ID returned by start"`
}

// GetStatusOutput is the response for polling run status
type GetStatusOutput struct {
	Body schemas.StatusResponse
}

// ListPositivesInput defines the input for listing positives
type ListPositivesInput struct {
	RunID     string  `path:"runId" doc:"Run ID"`
	Threshold float64 `query:"threshold" default:"0.8" doc:"Minimum score"`
	Page      int     `query:"page" default:"1" doc:"Page number (1-based)"`
	PageSize  int     `query:"page_size" default:"40" doc:"Records per page"`
}

// ListPositivesOutput is the response for listing positives
type ListPositivesOutput struct {
	Body schemas.PageResponse
}

// ExportInput defines the input for exporting a run
type ExportInput struct {
	RunID     string  `path:"runId" doc:"Run ID"`
	Format    string  `query:"fmt" default:"geojson" doc:"One of geojson, csv, gpx, kml"`
	Threshold float64 `query:"threshold" default:"-1" doc:"Minimum score; negative exports the full table"`
}

// ExportOutput is the response for exporting a run
type ExportOutput struct {
	Body schemas.ExportResponse
}

// ConfirmInput defines the input for recording confirmations
type ConfirmInput struct {
	RunID string `path:"runId" doc:"Run ID"`
	Body  schemas.ConfirmRequest
}

// ConfirmOutput is the response for recording confirmations
type ConfirmOutput struct {
	Body schemas.ConfirmResponse
}

// DeleteRunInput defines the input for purging a run
type DeleteRunInput struct {
	RunID string `path:"runId" doc:"Run ID"`
}

// DeleteRunOutput is the response for purging a run
type DeleteRunOutput struct {
	Body schemas.DeleteRunResponse
}

// RegisterRuns registers run-related routes
func RegisterRuns(api huma.API, svcs *services.Services) {
	// Start run
	huma.Register(api, huma.Operation{
		OperationID: "start-run",
		Method:      http.MethodPost,
		Path:        "/api/runs",
		Summary:     "Start a detection run",
		Description: "Queue a detection run over the given dataset",
		Tags:        []string{"Runs"},
	}, func(ctx context.Context, input *StartRunInput) (*StartRunOutput, error) {
		if svcs == nil {
			return nil, huma.Error503ServiceUnavailable("no services configured")
		}
		if input.Body.DatasetURI == "" {
			return nil, huma.Error400BadRequest("dataset_uri is required")
		}

		modelVersion := input.Body.ModelVersion
		if modelVersion == "" {
			modelVersion = "production"
		}
		threshold := pipeline.DefaultThreshold
		if input.Body.Threshold != nil {
			threshold = *input.Body.Threshold
		}
		if threshold < 0 || threshold > 1 {
			return nil, huma.Error400BadRequest(fmt.Sprintf("threshold %f out of [0,1]", threshold))
		}

		id, err := uuid.NewV7()
		if err != nil {
			return nil, huma.Error500InternalServerError(fmt.Sprintf("failed to generate run ID: %v", err))
		}
		jobID := id.String()

		if _, err := svcs.Jobs.Create(ctx, jobID); err != nil {
			return nil, huma.Error500InternalServerError(fmt.Sprintf("failed to record job: %v", err))
		}

		task := queue.Task{
			JobID:        jobID,
			DatasetURI:   input.Body.DatasetURI,
			ModelVersion: modelVersion,
			Threshold:    threshold,
		}
		if err := svcs.Queue.Enqueue(ctx, task); err != nil {
			return nil, huma.Error500InternalServerError(fmt.Sprintf("failed to queue run: %v", err))
		}

		resp := &StartRunOutput{}
		resp.Body = schemas.StartRunResponse{JobID: jobID, RunID: jobID}
		return resp, nil
	})

	// Query status
	huma.Register(api, huma.Operation{
		OperationID: "get-run-status",
		Method:      http.MethodGet,
		Path:        "/api/runs/{jobId}/status",
		Summary:     "Get run status",
		Description: "Poll the state and progress of a run",
		Tags:        []string{"Runs"},
	}, func(ctx context.Context, input *GetStatusInput) (*GetStatusOutput, error) {
		if svcs == nil {
			return nil, huma.Error503ServiceUnavailable("no services configured")
		}

		resp := &GetStatusOutput{}

		job, err := svcs.Jobs.Get(ctx, input.JobID)
		if err != nil {
			if errors.Is(err, jobs.ErrNotFound) {
				// A run may be accepted before its first metadata
				// write lands; report it as queued instead of erroring.
				resp.Body = schemas.StatusResponse{State: string(jobs.StateQueued), ProgressPct: 0}
				return resp, nil
			}
			return nil, huma.Error500InternalServerError(fmt.Sprintf("failed to load job: %v", err))
		}

		resp.Body = schemas.StatusResponse{
			State:       string(job.State),
			ProgressPct: job.Progress,
			Error:       job.Error,
		}
		return resp, nil
	})

	// List positives
	huma.Register(api, huma.Operation{
		OperationID: "list-positives",
		Method:      http.MethodGet,
		Path:        "/api/runs/{runId}/positives",
		Summary:     "List positive detections",
		Description: "Page through tiles at or above the score threshold",
		Tags:        []string{"Results"},
	}, func(ctx context.Context, input *ListPositivesInput) (*ListPositivesOutput, error) {
		if svcs == nil {
			return nil, huma.Error503ServiceUnavailable("no services configured")
		}

		page, err := svcs.Reader.Positives(ctx, pipeline.Query{
			RunID:     input.RunID,
			Threshold: input.Threshold,
			Page:      input.Page,
			PageSize:  input.PageSize,
		})
		if err != nil {
			return nil, mapPipelineError(err)
		}

		items := make([]schemas.PositiveItem, len(page.Items))
		for i, rec := range page.Items {
			items[i] = schemas.PositiveItem{
				TileID:   rec.TileID,
				ImageURL: rec.ImageURL,
				ThumbURL: rec.ThumbURL,
				Lat:      rec.Lat,
				Lon:      rec.Lon,
				Score:    rec.Score,
			}
		}

		resp := &ListPositivesOutput{}
		resp.Body = schemas.PageResponse{Items: items, Total: page.Total}
		return resp, nil
	})

	// Export
	huma.Register(api, huma.Operation{
		OperationID: "export-run",
		Method:      http.MethodGet,
		Path:        "/api/runs/{runId}/export",
		Summary:     "Export run results",
		Description: "Render the run's records into a geospatial interchange format",
		Tags:        []string{"Results"},
	}, func(ctx context.Context, input *ExportInput) (*ExportOutput, error) {
		if svcs == nil {
			return nil, huma.Error503ServiceUnavailable("no services configured")
		}

		threshold := input.Threshold
		if threshold < 0 {
			threshold = pipeline.NoThreshold
		}

		url, err := svcs.Exporter.Export(ctx, input.RunID, input.Format, threshold)
		if err != nil {
			return nil, mapPipelineError(err)
		}

		resp := &ExportOutput{}
		resp.Body = schemas.ExportResponse{URL: url}
		return resp, nil
	})

	// Confirm
	huma.Register(api, huma.Operation{
		OperationID: "confirm-run",
		Method:      http.MethodPost,
		Path:        "/api/runs/{runId}/confirm",
		Summary:     "Record reviewer confirmations",
		Description: "Store a batch of accept/reject decisions for a run. Replaces any prior batch",
		Tags:        []string{"Results"},
	}, func(ctx context.Context, input *ConfirmInput) (*ConfirmOutput, error) {
		if svcs == nil {
			return nil, huma.Error503ServiceUnavailable("no services configured")
		}

		selections := make([]pipeline.Selection, len(input.Body.Selections))
		for i, sel := range input.Body.Selections {
			selections[i] = pipeline.Selection{TileID: sel.TileID, Confirmed: sel.Confirmed}
		}

		if err := svcs.Sink.Save(ctx, input.RunID, selections); err != nil {
			return nil, mapPipelineError(err)
		}

		resp := &ConfirmOutput{}
		resp.Body = schemas.ConfirmResponse{OK: true}
		return resp, nil
	})

	// Delete run
	huma.Register(api, huma.Operation{
		OperationID: "delete-run",
		Method:      http.MethodDelete,
		Path:        "/api/runs/{runId}",
		Summary:     "Delete a run",
		Description: "Remove all artifacts and job metadata for a run. Idempotent",
		Tags:        []string{"Runs"},
	}, func(ctx context.Context, input *DeleteRunInput) (*DeleteRunOutput, error) {
		if svcs == nil {
			return nil, huma.Error503ServiceUnavailable("no services configured")
		}

		if err := svcs.Blob.DeletePrefix(ctx, blob.RunPrefix(input.RunID)); err != nil {
			return nil, huma.Error500InternalServerError(fmt.Sprintf("failed to delete run artifacts: %v", err))
		}
		if err := svcs.Jobs.Delete(ctx, input.RunID); err != nil {
			return nil, huma.Error500InternalServerError(fmt.Sprintf("failed to delete job metadata: %v", err))
		}

		resp := &DeleteRunOutput{}
		resp.Body = schemas.DeleteRunResponse{OK: true}
		return resp, nil
	})
}

// mapPipelineError translates pipeline error codes to HTTP errors.
func mapPipelineError(err error) error {
	switch {
	case pipeline.IsCode(err, pipeline.CodeInvalidArgument):
		return huma.Error400BadRequest(err.Error())
	case pipeline.IsCode(err, pipeline.CodeNotFound):
		return huma.Error404NotFound(err.Error())
	default:
		return huma.Error500InternalServerError(err.Error())
	}
}
