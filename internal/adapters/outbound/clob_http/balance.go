package clob_http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/charleschow/polyclob/internal/core/trading"
)

// BalanceAllowanceParams selects the asset. SignatureType nil means the
// client's configured type.
type BalanceAllowanceParams struct {
	AssetType     trading.AssetType
	TokenID       string
	SignatureType *int
}

func (c *Client) balanceQuery(p BalanceAllowanceParams) url.Values {
	q := url.Values{}
	assetType := p.AssetType
	if assetType == "" {
		assetType = trading.Collateral
	}
	q.Set("asset_type", string(assetType))
	if p.TokenID != "" {
		q.Set("token_id", p.TokenID)
	}
	sigType := c.sigType
	if p.SignatureType != nil {
		sigType = *p.SignatureType
	}
	q.Set("signature_type", strconv.Itoa(sigType))
	return q
}

func (c *Client) GetBalanceAllowance(ctx context.Context, p BalanceAllowanceParams) (*trading.BalanceAllowance, error) {
	var resp trading.BalanceAllowance
	err := c.send(ctx, request{
		method: http.MethodGet,
		path:   "/balance-allowance",
		query:  c.balanceQuery(p),
		l2:     true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateBalanceAllowance asks the exchange to re-read the wallet's onchain
// balance and allowances. The response body is returned as-is.
func (c *Client) UpdateBalanceAllowance(ctx context.Context, p BalanceAllowanceParams) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.send(ctx, request{
		method: http.MethodGet,
		path:   "/balance-allowance/update",
		query:  c.balanceQuery(p),
		l2:     true,
	}, &raw)
	return raw, err
}
