package schemas

// StartRunRequest represents a request to start a detection run
type StartRunRequest struct {
	DatasetURI   string   `json:"dataset_uri" doc:"Locator of the imagery dataset to scan"`
	ModelVersion string   `json:"model_version,omitempty" doc:"Model version to score with. Defaults to production"`
	Threshold    *float64 `json:"threshold,omitempty" doc:"Default review threshold recorded with the run. Not applied at write time" minimum:"0" maximum:"1"`
}

// StartRunResponse acknowledges an accepted run
type StartRunResponse struct {
	JobID string `json:"job_id" doc:"Job ID for status polling"`
	RunID string `json:"run_id" doc:"Run ID all artifacts are keyed by (equals job_id)"`
}

// StatusResponse reports run progress
type StatusResponse struct {
	State       string  `json:"state" doc:"One of queued, running, completed, failed"`
	ProgressPct float64 `json:"progress_pct" doc:"Progress in [0,100], monotonically non-decreasing"`
	EtaS        *int    `json:"eta_s,omitempty" doc:"Estimated seconds to completion, when known"`
	Error       string  `json:"error,omitempty" doc:"Failure reason for failed runs"`
}

// PositiveItem is one tile at or above the review threshold
type PositiveItem struct {
	TileID   string  `json:"tile_id" doc:"Tile identifier, unique within the run"`
	ImageURL string  `json:"image_url" doc:"Presigned URL of the full-resolution source"`
	ThumbURL string  `json:"thumb_url" doc:"Presigned URL of the tile thumbnail"`
	Lat      float64 `json:"lat" doc:"Latitude of the tile center (decimal degrees)"`
	Lon      float64 `json:"lon" doc:"Longitude of the tile center (decimal degrees)"`
	Score    float64 `json:"score" doc:"Model confidence in [0,1]"`
}

// PageResponse is one page of positives
type PageResponse struct {
	Items []PositiveItem `json:"items" doc:"Records on this page, score descending"`
	Total int            `json:"total" doc:"Count after filtering, before pagination"`
}

// ExportResponse points at a rendered export artifact
type ExportResponse struct {
	URL string `json:"url" doc:"Presigned download URL of the export artifact"`
}

// Selection is one reviewer decision
type Selection struct {
	TileID    string `json:"tile_id" doc:"Tile identifier"`
	Confirmed bool   `json:"confirmed" doc:"Whether the reviewer confirmed the detection"`
}

// ConfirmRequest records reviewer decisions for a run
type ConfirmRequest struct {
	Selections []Selection `json:"selections" doc:"Batch of decisions. Replaces any prior batch for the run"`
}

// ConfirmResponse acknowledges recorded decisions
type ConfirmResponse struct {
	OK bool `json:"ok" doc:"Always true on success"`
}

// DeleteRunResponse acknowledges a purged run
type DeleteRunResponse struct {
	OK bool `json:"ok" doc:"Always true on success"`
}
