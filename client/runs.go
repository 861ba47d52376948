package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"compass/api"
	"compass/orchestrator"
	"compass/scheduler"
	"compass/store"
)

// TriggerRun asks the server to start a run. It returns ErrBusy while
// another run is in progress.
func (c *Client) TriggerRun(ctx context.Context, req orchestrator.Request) (*scheduler.Status, error) {
	payload := api.StartRunRequest{Date: req.Date, Fetch: req.Fetch}

	var status scheduler.Status
	if err := c.doJSONRequest(ctx, http.MethodPost, "/api/runs", payload, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// TriggerRSSRefresh asks the server to fetch feeds and then run
func (c *Client) TriggerRSSRefresh(ctx context.Context) (*scheduler.Status, error) {
	var status scheduler.Status
	if err := c.doJSONRequest(ctx, http.MethodPost, "/api/rss/refresh", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Status returns the scheduler state
func (c *Client) Status(ctx context.Context) (*scheduler.Status, error) {
	var status scheduler.Status
	if err := c.doJSONRequest(ctx, http.MethodGet, "/api/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Runs lists the most recent runs, newest first
func (c *Client) Runs(ctx context.Context, limit int) ([]store.Run, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	path := "/api/runs"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var result struct {
		Runs []store.Run `json:"runs"`
	}
	if err := c.doJSONRequest(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result.Runs, nil
}
