// Package stockpoll implements a polling client for the stock summary
// endpoint, for dashboards that refresh on an interval. Forced refreshes are
// coalesced: one request in flight, at most one follow-up pending.
package stockpoll

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/bosowa/fuel-ledger/internal/core/ports"
)

// SummaryFetcher retrieves the current stock summary for a category.
type SummaryFetcher interface {
	Summary(ctx context.Context, category string) (*ports.StockSummary, error)
}

// Client is an HTTP SummaryFetcher backed by resty.
type Client struct {
	rc *resty.Client
}

// NewClient builds a client for the API at baseURL. The summary endpoint is
// a public read, so accessToken may be empty; a non-empty token is sent as a
// bearer header.
func NewClient(baseURL, accessToken string) *Client {
	rc := resty.New().SetBaseURL(baseURL)
	if accessToken != "" {
		rc.SetAuthToken(accessToken)
	}
	return &Client{rc: rc}
}

// SetToken replaces the bearer token, e.g. after a refresh rotation.
func (c *Client) SetToken(accessToken string) {
	c.rc.SetAuthToken(accessToken)
}

func (c *Client) Summary(ctx context.Context, category string) (*ports.StockSummary, error) {
	req := c.rc.R().
		SetContext(ctx).
		SetResult(&ports.StockSummary{})
	if category != "" {
		req.SetQueryParam("category", category)
	}

	resp, err := req.Get("/api/stock/summary")
	if err != nil {
		return nil, fmt.Errorf("fetch summary: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch summary: status %d: %s", resp.StatusCode(), resp.String())
	}
	return resp.Result().(*ports.StockSummary), nil
}

var _ SummaryFetcher = (*Client)(nil)
