package clob_http

import (
	"context"
	"net/http"
	"net/url"
)

// FirstCursor starts pagination; the API returns EndCursor after the last
// page.
const (
	FirstCursor = "MA=="
	EndCursor   = "LTE="
)

// Market is passed through untouched; the CLI only reads a few keys.
type Market = map[string]any

// MarketsPage is one page of /simplified-markets or /markets.
type MarketsPage struct {
	Limit      int      `json:"limit"`
	Count      int      `json:"count"`
	NextCursor string   `json:"next_cursor"`
	Data       []Market `json:"data"`
}

func (c *Client) GetMarket(ctx context.Context, conditionID string) (Market, error) {
	var m Market
	err := c.send(ctx, request{method: http.MethodGet, path: "/markets/" + conditionID}, &m)
	return m, err
}

func (c *Client) GetSimplifiedMarkets(ctx context.Context, cursor string) (*MarketsPage, error) {
	return c.marketsPage(ctx, "/simplified-markets", cursor)
}

func (c *Client) GetSamplingSimplifiedMarkets(ctx context.Context, cursor string) (*MarketsPage, error) {
	return c.marketsPage(ctx, "/sampling-simplified-markets", cursor)
}

func (c *Client) marketsPage(ctx context.Context, path, cursor string) (*MarketsPage, error) {
	if cursor == "" {
		cursor = FirstCursor
	}
	var page MarketsPage
	err := c.send(ctx, request{
		method: http.MethodGet,
		path:   path,
		query:  url.Values{"next_cursor": {cursor}},
	}, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}
