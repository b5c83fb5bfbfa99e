package clob_http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/polymarket/go-order-utils/pkg/model"
	"github.com/shopspring/decimal"

	"github.com/charleschow/polyclob/internal/core/trading"
	"github.com/charleschow/polyclob/internal/telemetry"
)

// OrderOptions carries market parameters the caller already knows, saving
// the /tick-size and /neg-risk lookups.
type OrderOptions struct {
	TickSize decimal.NullDecimal
	NegRisk  *bool
}

// SignedOrder is the wire form of an order in POST /order.
type SignedOrder struct {
	Salt          int64  `json:"salt"`
	Maker         string `json:"maker"`
	Signer        string `json:"signer"`
	Taker         string `json:"taker"`
	TokenID       string `json:"tokenId"`
	MakerAmount   string `json:"makerAmount"`
	TakerAmount   string `json:"takerAmount"`
	Expiration    string `json:"expiration"`
	Nonce         string `json:"nonce"`
	FeeRateBps    string `json:"feeRateBps"`
	Side          string `json:"side"`
	SignatureType int    `json:"signatureType"`
	Signature     string `json:"signature"`
}

type postOrderRequest struct {
	Order     SignedOrder `json:"order"`
	Owner     string      `json:"owner"`
	OrderType string      `json:"orderType"`
}

type OrderResponse struct {
	Success            bool     `json:"success"`
	ErrorMsg           string   `json:"errorMsg"`
	OrderID            string   `json:"orderID"`
	Status             string   `json:"status"`
	TakingAmount       string   `json:"takingAmount,omitempty"`
	MakingAmount       string   `json:"makingAmount,omitempty"`
	TransactionsHashes []string `json:"transactionsHashes,omitempty"`
}

type CancelResponse struct {
	Canceled    []string          `json:"canceled"`
	NotCanceled map[string]string `json:"not_canceled"`
}

// CreateOrder computes amounts and signs args for the right exchange
// contract. Nothing is sent except the market parameter lookups.
func (c *Client) CreateOrder(ctx context.Context, args trading.OrderArgs, opts OrderOptions) (*SignedOrder, error) {
	if c.signer == nil {
		return nil, fmt.Errorf("create order: %w", ErrAuthRequired)
	}

	tick := opts.TickSize.Decimal
	if !opts.TickSize.Valid {
		t, err := c.GetTickSize(ctx, args.TokenID)
		if err != nil {
			return nil, fmt.Errorf("tick size: %w", err)
		}
		tick = t
	}
	if err := trading.CheckPrice(args.Price, tick); err != nil {
		return nil, err
	}

	var negRisk bool
	if opts.NegRisk != nil {
		negRisk = *opts.NegRisk
	} else {
		nr, err := c.GetNegRisk(ctx, args.TokenID)
		if err != nil {
			return nil, fmt.Errorf("neg risk: %w", err)
		}
		negRisk = nr
	}

	makerAmt, takerAmt, err := trading.OrderAmounts(args.Side, args.Size, args.Price, tick)
	if err != nil {
		return nil, err
	}

	var side model.Side = model.BUY
	if args.Side == trading.Sell {
		side = model.SELL
	}
	var contract model.VerifyingContract = model.CTFExchange
	if negRisk {
		contract = model.NegRiskCTFExchange
	}

	data := &model.OrderData{
		Maker:         c.makerAddress().Hex(),
		Taker:         common.Address{}.Hex(),
		TokenId:       args.TokenID,
		MakerAmount:   makerAmt.String(),
		TakerAmount:   takerAmt.String(),
		Side:          side,
		FeeRateBps:    "0",
		Nonce:         "0",
		Signer:        c.signer.Address().Hex(),
		Expiration:    "0",
		SignatureType: model.SignatureType(c.sigType),
	}

	signed, err := c.orders.BuildSignedOrder(c.signer.PrivateKey(), data, contract)
	if err != nil {
		return nil, fmt.Errorf("sign order: %w", err)
	}

	return &SignedOrder{
		Salt:          signed.Salt.Int64(),
		Maker:         signed.Maker.Hex(),
		Signer:        signed.Signer.Hex(),
		Taker:         signed.Taker.Hex(),
		TokenID:       signed.TokenId.String(),
		MakerAmount:   signed.MakerAmount.String(),
		TakerAmount:   signed.TakerAmount.String(),
		Expiration:    signed.Expiration.String(),
		Nonce:         signed.Nonce.String(),
		FeeRateBps:    signed.FeeRateBps.String(),
		Side:          string(args.Side),
		SignatureType: c.sigType,
		Signature:     hexutil.Encode(signed.Signature),
	}, nil
}

func (c *Client) PostOrder(ctx context.Context, order *SignedOrder, orderType trading.OrderType) (*OrderResponse, error) {
	if !c.signer.Enabled() {
		return nil, fmt.Errorf("post order: %w", ErrAuthRequired)
	}
	if orderType == "" {
		orderType = trading.GTC
	}
	var resp OrderResponse
	err := c.send(ctx, request{
		method: http.MethodPost,
		path:   "/order",
		body: postOrderRequest{
			Order:     *order,
			Owner:     c.signer.Creds().APIKey,
			OrderType: string(orderType),
		},
		l2: true,
	}, &resp)
	if err != nil {
		telemetry.Metrics.OrderErrors.Inc()
		return nil, err
	}
	if !resp.Success && resp.ErrorMsg != "" {
		telemetry.Metrics.OrderErrors.Inc()
		return &resp, fmt.Errorf("order rejected: %s", resp.ErrorMsg)
	}

	telemetry.Metrics.OrdersSent.Inc()
	telemetry.Infof("clob: order posted side=%s token=%s maker=%s taker=%s -> %s %s",
		order.Side, order.TokenID, order.MakerAmount, order.TakerAmount, resp.OrderID, resp.Status)
	return &resp, nil
}

// CreateAndPostOrder signs and submits args in one step.
func (c *Client) CreateAndPostOrder(ctx context.Context, args trading.OrderArgs, orderType trading.OrderType, opts OrderOptions) (*OrderResponse, error) {
	order, err := c.CreateOrder(ctx, args, opts)
	if err != nil {
		return nil, err
	}
	return c.PostOrder(ctx, order, orderType)
}

func (c *Client) Cancel(ctx context.Context, orderID string) (*CancelResponse, error) {
	var resp CancelResponse
	err := c.send(ctx, request{
		method: http.MethodDelete,
		path:   "/order",
		body:   map[string]string{"orderID": orderID},
		l2:     true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CancelAll(ctx context.Context) (*CancelResponse, error) {
	var resp CancelResponse
	err := c.send(ctx, request{method: http.MethodDelete, path: "/cancel-all", l2: true}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
