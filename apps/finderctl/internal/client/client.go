// Package client is a thin HTTP client for the tortoise-finder API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/isabela-labs/tortoisefind/pkg/api/schemas"
)

// Client talks to a running finderd instance.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New returns a client for the API at baseURL.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// apiError mirrors the problem-details body the API returns on failure.
type apiError struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

func (e *apiError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (%d): %s", e.Title, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s (%d)", e.Title, e.Status)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		apiErr := &apiError{Title: resp.Status, Status: resp.StatusCode}
		_ = json.Unmarshal(data, apiErr)
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// StartRun queues a detection run.
func (c *Client) StartRun(ctx context.Context, req schemas.StartRunRequest) (*schemas.StartRunResponse, error) {
	var out schemas.StartRunResponse
	if err := c.do(ctx, http.MethodPost, "/api/runs", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Status reports the state and progress of a run.
func (c *Client) Status(ctx context.Context, jobID string) (*schemas.StatusResponse, error) {
	var out schemas.StatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/runs/"+url.PathEscape(jobID)+"/status", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Positives fetches one page of detections at or above threshold.
func (c *Client) Positives(ctx context.Context, runID string, threshold float64, page, pageSize int) (*schemas.PageResponse, error) {
	q := url.Values{}
	q.Set("threshold", strconv.FormatFloat(threshold, 'g', -1, 64))
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))

	var out schemas.PageResponse
	if err := c.do(ctx, http.MethodGet, "/api/runs/"+url.PathEscape(runID)+"/positives", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Export renders the run's detections in the given format and returns a
// download URL. A negative threshold exports every record.
func (c *Client) Export(ctx context.Context, runID, format string, threshold float64) (*schemas.ExportResponse, error) {
	q := url.Values{}
	q.Set("fmt", format)
	q.Set("threshold", strconv.FormatFloat(threshold, 'g', -1, 64))

	var out schemas.ExportResponse
	if err := c.do(ctx, http.MethodGet, "/api/runs/"+url.PathEscape(runID)+"/export", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteRun removes all artifacts and job metadata for a run.
func (c *Client) DeleteRun(ctx context.Context, runID string) error {
	var out schemas.DeleteRunResponse
	return c.do(ctx, http.MethodDelete, "/api/runs/"+url.PathEscape(runID), nil, nil, &out)
}

// Confirm records reviewer decisions for a run, replacing any prior batch.
func (c *Client) Confirm(ctx context.Context, runID string, req schemas.ConfirmRequest) (*schemas.ConfirmResponse, error) {
	var out schemas.ConfirmResponse
	if err := c.do(ctx, http.MethodPost, "/api/runs/"+url.PathEscape(runID)+"/confirm", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
