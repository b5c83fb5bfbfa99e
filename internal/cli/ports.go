package cli

import (
	"context"
	"crypto/ecdsa"

	"github.com/charleschow/polyclob/internal/adapters/inbound/clob_ws"
	"github.com/charleschow/polyclob/internal/adapters/outbound/clob_http"
	"github.com/charleschow/polyclob/internal/adapters/outbound/polygon_rpc"
	"github.com/charleschow/polyclob/internal/clobclient"
	"github.com/charleschow/polyclob/internal/config"
	"github.com/charleschow/polyclob/internal/core/diagnose"
	"github.com/charleschow/polyclob/internal/core/trading"
	"github.com/charleschow/polyclob/internal/events"
)

var (
	_ Exchange = (*clob_http.Client)(nil)
	_ Chain    = (*polygon_rpc.Client)(nil)
	_ Feed     = (*clob_ws.Client)(nil)
)

// Exchange is everything the commands call on the CLOB.
// Satisfied by *clob_http.Client.
type Exchange interface {
	diagnose.Exchange
	GetMarket(ctx context.Context, conditionID string) (clob_http.Market, error)
	GetSimplifiedMarkets(ctx context.Context, cursor string) (*clob_http.MarketsPage, error)
	GetSamplingSimplifiedMarkets(ctx context.Context, cursor string) (*clob_http.MarketsPage, error)
	GetOrderBook(ctx context.Context, tokenID string) (*trading.OrderBook, error)
	CreateAndPostOrder(ctx context.Context, args trading.OrderArgs, orderType trading.OrderType, opts clob_http.OrderOptions) (*clob_http.OrderResponse, error)
	Cancel(ctx context.Context, orderID string) (*clob_http.CancelResponse, error)
	CancelAll(ctx context.Context) (*clob_http.CancelResponse, error)
	SigningKey() *ecdsa.PrivateKey
}

// Chain is the Polygon RPC connection used by diagnose.
type Chain interface {
	diagnose.Chain
	Close()
}

// Feed is the market websocket used by watch.
type Feed interface {
	SubscribeAssets(assetIDs []string) error
	Connect(ctx context.Context) error
	Close() error
	Done() <-chan struct{}
}

// Factory builds the collaborators of a command. Each command makes at
// most one Exchange call through it, after its arguments are validated.
type Factory struct {
	Config   func() (*config.Config, error)
	Exchange func(ctx context.Context, cfg *config.Config, requireAuth bool) (Exchange, error)
	Chain    func(ctx context.Context, cfg *config.Config) (Chain, error)
	Feed     func(cfg *config.Config, bus *events.Bus) Feed
}

func DefaultFactory() Factory {
	return Factory{
		Config: config.Load,
		Exchange: func(ctx context.Context, cfg *config.Config, requireAuth bool) (Exchange, error) {
			c, err := clobclient.New(ctx, cfg, requireAuth)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
		Chain: func(ctx context.Context, cfg *config.Config) (Chain, error) {
			c, err := clobclient.NewRPC(ctx, cfg)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
		Feed: func(cfg *config.Config, bus *events.Bus) Feed {
			return clob_ws.NewClient(cfg.WSURL, bus)
		},
	}
}
