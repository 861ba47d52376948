package client

import (
	"context"
	"net/http"
	"net/url"

	"compass/api"
	"compass/types"
)

// LatestBriefing fetches the most recent briefing
func (c *Client) LatestBriefing(ctx context.Context) (*types.Briefing, error) {
	var b types.Briefing
	if err := c.doJSONRequest(ctx, http.MethodGet, "/api/briefings/latest", nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Briefing fetches the briefing for date
func (c *Client) Briefing(ctx context.Context, date string) (*types.Briefing, error) {
	var b types.Briefing
	if err := c.doJSONRequest(ctx, http.MethodGet, "/api/briefings/"+url.PathEscape(date), nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// CheckDuplicates runs the server's deduplicator over signals
func (c *Client) CheckDuplicates(ctx context.Context, signals, previous []types.Signal) (*api.CheckDuplicatesResponse, error) {
	payload := api.CheckDuplicatesRequest{Signals: signals, Previous: previous}

	var result api.CheckDuplicatesResponse
	if err := c.doJSONRequest(ctx, http.MethodPost, "/api/deduplication/check", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
