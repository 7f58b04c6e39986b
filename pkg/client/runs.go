package client

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// Run is an analysis run as reported by the API.
type Run struct {
	ID           string     `json:"id"`
	TargetDomain string     `json:"target_domain"`
	Competitors  []string   `json:"competitors"`
	Status       string     `json:"status"`
	RequestedAt  time.Time  `json:"requested_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`

	NoGapsFound      bool   `json:"no_gaps_found"`
	OpportunityCount int    `json:"opportunity_count"`
	ReportObjectKey  string `json:"report_object_key,omitempty"`
	ErrorMessage     string `json:"error_message,omitempty"`
}

// Terminal reports whether the run reached a final state.
func (r *Run) Terminal() bool {
	return r.Status == "completed" || r.Status == "failed"
}

// CreateRunRequest overrides the server's configured target and competitor
// set.  Zero values fall back to the server configuration.
type CreateRunRequest struct {
	TargetDomain string   `json:"target_domain,omitempty"`
	Competitors  []string `json:"competitors,omitempty"`
}

// RunList is one page of runs.
type RunList struct {
	Items    []Run `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

// ListRunsOptions filters and paginates ListRuns.
type ListRunsOptions struct {
	Domain   string
	Page     int
	PageSize int
}

// ReportLink is a presigned download location for a run's HTML report.
type ReportLink struct {
	RunID       string `json:"run_id"`
	ObjectKey   string `json:"object_key"`
	DownloadURL string `json:"download_url"`
}

// CreateRun queues a new gap analysis.
func (c *Client) CreateRun(ctx context.Context, req CreateRunRequest) (*Run, error) {
	var run Run
	if err := c.post(ctx, "/api/v1/runs", req, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// GetRun fetches one run by ID.
func (c *Client) GetRun(ctx context.Context, id string) (*Run, error) {
	if id == "" {
		return nil, fmt.Errorf("client: run id is required")
	}
	var run Run
	if err := c.get(ctx, "/api/v1/runs/"+url.PathEscape(id), &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns pages through runs, newest first.
func (c *Client) ListRuns(ctx context.Context, opts ListRunsOptions) (*RunList, error) {
	q := url.Values{}
	if opts.Domain != "" {
		q.Set("domain", opts.Domain)
	}
	if opts.Page > 0 {
		q.Set("page", fmt.Sprintf("%d", opts.Page))
	}
	if opts.PageSize > 0 {
		q.Set("page_size", fmt.Sprintf("%d", opts.PageSize))
	}
	path := "/api/v1/runs"
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var list RunList
	if err := c.get(ctx, path, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetReportLink fetches the report download URL for a completed run.
func (c *Client) GetReportLink(ctx context.Context, id string) (*ReportLink, error) {
	if id == "" {
		return nil, fmt.Errorf("client: run id is required")
	}
	var link ReportLink
	if err := c.get(ctx, "/api/v1/runs/"+url.PathEscape(id)+"/report", &link); err != nil {
		return nil, err
	}
	return &link, nil
}

// WaitForRun polls until the run reaches a terminal state or ctx expires.
func (c *Client) WaitForRun(ctx context.Context, id string, interval time.Duration) (*Run, error) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		run, err := c.GetRun(ctx, id)
		if err != nil {
			return nil, err
		}
		if run.Terminal() {
			return run, nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return run, ctx.Err()
		}
	}
}
