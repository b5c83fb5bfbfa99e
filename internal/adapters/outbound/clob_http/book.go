package clob_http

import (
	"context"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/charleschow/polyclob/internal/core/trading"
)

func (c *Client) GetOrderBook(ctx context.Context, tokenID string) (*trading.OrderBook, error) {
	var book trading.OrderBook
	err := c.send(ctx, request{
		method: http.MethodGet,
		path:   "/book",
		query:  url.Values{"token_id": {tokenID}},
	}, &book)
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (c *Client) GetTickSize(ctx context.Context, tokenID string) (decimal.Decimal, error) {
	var resp struct {
		MinimumTickSize decimal.Decimal `json:"minimum_tick_size"`
	}
	err := c.send(ctx, request{
		method: http.MethodGet,
		path:   "/tick-size",
		query:  url.Values{"token_id": {tokenID}},
	}, &resp)
	if err != nil {
		return decimal.Zero, err
	}
	if _, err := trading.ConfigForTick(resp.MinimumTickSize); err != nil {
		return decimal.Zero, err
	}
	return resp.MinimumTickSize, nil
}

func (c *Client) GetNegRisk(ctx context.Context, tokenID string) (bool, error) {
	var resp struct {
		NegRisk bool `json:"neg_risk"`
	}
	err := c.send(ctx, request{
		method: http.MethodGet,
		path:   "/neg-risk",
		query:  url.Values{"token_id": {tokenID}},
	}, &resp)
	return resp.NegRisk, err
}
