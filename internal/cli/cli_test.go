package cli

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charleschow/polyclob/internal/adapters/outbound/clob_http"
	"github.com/charleschow/polyclob/internal/config"
	"github.com/charleschow/polyclob/internal/core/trading"
	"github.com/charleschow/polyclob/internal/events"
)

const token = "71321045679252212594626385532706912750332728571942532289631379312455583992563"

type fakeExchange struct {
	book     *trading.OrderBook
	bookErr  error
	bal      *trading.BalanceAllowance
	page     *clob_http.MarketsPage
	markets  map[string]clob_http.Market
	identity clob_http.Identity

	balanceCalls  int
	balanceParams clob_http.BalanceAllowanceParams
	refreshCalls  int
	sampling      bool
	cursor        string

	posted    []trading.OrderArgs
	postType  trading.OrderType
	postOpts  clob_http.OrderOptions
	canceled  []string
	cancelAll bool
}

func newFakeExchange() *fakeExchange {
	return &fakeExchange{
		book: &trading.OrderBook{
			AssetID:      token,
			Bids:         []trading.PriceLevel{level("0.48", "10")},
			Asks:         []trading.PriceLevel{level("0.52", "50"), level("0.50", "100")},
			TickSize:     "0.01",
			MinOrderSize: "5",
			NegRisk:      true,
		},
		bal:      &trading.BalanceAllowance{Balance: "10000000", Allowances: map[string]string{"0xe1": "1000"}},
		markets:  map[string]clob_http.Market{},
		identity: clob_http.Identity{Address: "0xA1", Exchange: "0xE1", ChainID: 137},
	}
}

func level(price, size string) trading.PriceLevel {
	return trading.PriceLevel{Price: decimal.RequireFromString(price), Size: decimal.RequireFromString(size)}
}

func (f *fakeExchange) Identity() clob_http.Identity { return f.identity }

func (f *fakeExchange) GetBalanceAllowance(_ context.Context, p clob_http.BalanceAllowanceParams) (*trading.BalanceAllowance, error) {
	f.balanceCalls++
	f.balanceParams = p
	return f.bal, nil
}

func (f *fakeExchange) UpdateBalanceAllowance(context.Context, clob_http.BalanceAllowanceParams) (json.RawMessage, error) {
	f.refreshCalls++
	return json.RawMessage(`""`), nil
}

func (f *fakeExchange) GetMarket(_ context.Context, id string) (clob_http.Market, error) {
	if m, ok := f.markets[id]; ok {
		return m, nil
	}
	return nil, &clob_http.APIError{Method: "GET", Path: "/markets/" + id, StatusCode: 404}
}

func (f *fakeExchange) GetSimplifiedMarkets(_ context.Context, cursor string) (*clob_http.MarketsPage, error) {
	f.cursor = cursor
	return f.page, nil
}

func (f *fakeExchange) GetSamplingSimplifiedMarkets(_ context.Context, cursor string) (*clob_http.MarketsPage, error) {
	f.sampling = true
	f.cursor = cursor
	return f.page, nil
}

func (f *fakeExchange) GetOrderBook(context.Context, string) (*trading.OrderBook, error) {
	return f.book, f.bookErr
}

func (f *fakeExchange) CreateAndPostOrder(_ context.Context, args trading.OrderArgs, ot trading.OrderType, opts clob_http.OrderOptions) (*clob_http.OrderResponse, error) {
	f.posted = append(f.posted, args)
	f.postType = ot
	f.postOpts = opts
	return &clob_http.OrderResponse{Success: true, OrderID: "0xorder", Status: "live"}, nil
}

func (f *fakeExchange) Cancel(_ context.Context, id string) (*clob_http.CancelResponse, error) {
	f.canceled = append(f.canceled, id)
	return &clob_http.CancelResponse{Canceled: []string{id}}, nil
}

func (f *fakeExchange) CancelAll(context.Context) (*clob_http.CancelResponse, error) {
	f.cancelAll = true
	return &clob_http.CancelResponse{Canceled: []string{"0x1", "0x2"}}, nil
}

func (f *fakeExchange) SigningKey() *ecdsa.PrivateKey { return nil }

type fakeChain struct{ closed bool }

func (c *fakeChain) Allowance(context.Context, common.Address, common.Address, common.Address) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (c *fakeChain) Approve(context.Context, *ecdsa.PrivateKey, common.Address, common.Address, *big.Int) (common.Hash, error) {
	return common.Hash{}, nil
}

func (c *fakeChain) Close() { c.closed = true }

type fakeFeed struct {
	bus    *events.Bus
	emit   []events.Event
	ids    []string
	done   chan struct{}
	closed sync.Once
}

func (f *fakeFeed) SubscribeAssets(ids []string) error { f.ids = ids; return nil }

func (f *fakeFeed) Connect(context.Context) error {
	go func() {
		for _, e := range f.emit {
			f.bus.Publish(e)
		}
	}()
	return nil
}

func (f *fakeFeed) Close() error {
	f.closed.Do(func() { close(f.done) })
	return nil
}

func (f *fakeFeed) Done() <-chan struct{} { return f.done }

type harness struct {
	ex  *fakeExchange
	cfg *config.Config

	exchangeErr   error
	exchangeCalls int
	lastAuth      bool
	chain         *fakeChain
	chainCalls    int
	feed          *fakeFeed
}

func newHarness() *harness {
	return &harness{
		ex: newFakeExchange(),
		cfg: &config.Config{
			Host:     "http://clob.test",
			WSURL:    "ws://clob.test/ws/market",
			ChainID:  137,
			Timeout:  5 * time.Second,
			LogLevel: "warn",
		},
		chain: &fakeChain{},
		feed:  &fakeFeed{done: make(chan struct{})},
	}
}

func (h *harness) factory() Factory {
	return Factory{
		Config: func() (*config.Config, error) { return h.cfg, nil },
		Exchange: func(_ context.Context, _ *config.Config, requireAuth bool) (Exchange, error) {
			h.exchangeCalls++
			h.lastAuth = requireAuth
			if h.exchangeErr != nil {
				return nil, h.exchangeErr
			}
			return h.ex, nil
		},
		Chain: func(context.Context, *config.Config) (Chain, error) {
			h.chainCalls++
			return h.chain, nil
		},
		Feed: func(_ *config.Config, bus *events.Bus) Feed {
			h.feed.bus = bus
			return h.feed
		},
	}
}

func (h *harness) run(args ...string) (int, string, string) {
	var out, errOut bytes.Buffer
	code := run(context.Background(), &out, &errOut, args, h.factory())
	return code, out.String(), errOut.String()
}

func TestInvalidArgumentsRejectedBeforeClient(t *testing.T) {
	cases := [][]string{
		{"orderbook", "abc"},
		{"orderbook", "0x12"},
		{"orderbook", token, "extra"},
		{"quote"},
		{"buy", token, "ten", "0.5"},
		{"buy", token, "10", "1.5"},
		{"buy", token, "10", "0"},
		{"buy", "12a", "10", "0.5"},
		{"buy", token, "10", "0.5", "--order-type", "GTD"},
		{"sell", token, "-1", "0.5"},
		{"buy-max", token, "0"},
		{"buy-max", token, "abc"},
		{"buy-max", token, "5", "--price", "2"},
		{"cancel"},
		{"cancel", "--all", "--order-id", "0xabc"},
		{"markets", "--id", "123"},
		{"markets", "--limit", "-1"},
		{"balance", "--asset-type", "foo"},
		{"balance", "--asset-type", "conditional"},
		{"balance", "--signature-type", "7"},
		{"diagnose", "--approve"},
		{"watch"},
		{"watch", "notanumber"},
		{"--output", "xml", "orderbook", token},
		{"orderbook", token, "--nope"},
		{"bogus-command"},
	}

	for _, args := range cases {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			h := newHarness()
			code, out, errOut := h.run(args...)
			assert.Equal(t, 2, code, "stderr: %s", errOut)
			assert.Zero(t, h.exchangeCalls, "no client may be built")
			assert.Empty(t, h.ex.posted)
			assert.Empty(t, out)
			assert.Contains(t, errOut, "Error: ")
		})
	}
}

func TestOrderbook(t *testing.T) {
	h := newHarness()
	code, out, _ := h.run("orderbook", token)
	require.Equal(t, 0, code)
	assert.False(t, h.lastAuth, "read-only commands use a public client")

	var book trading.OrderBook
	require.NoError(t, json.Unmarshal([]byte(out), &book))
	assert.Len(t, book.Asks, 2)
	assert.Equal(t, "0.01", book.TickSize)
}

func TestOrderbookTable(t *testing.T) {
	h := newHarness()
	code, out, _ := h.run("orderbook", token, "-o", "table")
	require.Equal(t, 0, code)

	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Contains(t, lines[0], "SIDE")
	assert.Contains(t, lines[1], "0.52", "asks are listed high to low")
	assert.Contains(t, lines[2], "0.5")
	assert.Contains(t, lines[3], "bid")
}

func TestQuote(t *testing.T) {
	h := newHarness()
	code, out, _ := h.run("quote", token)
	require.Equal(t, 0, code)

	var q struct {
		TokenID string             `json:"token_id"`
		BestBid trading.PriceLevel `json:"best_bid"`
		BestAsk trading.PriceLevel `json:"best_ask"`
		MinSize string             `json:"min_order_size"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &q))
	assert.Equal(t, token, q.TokenID)
	assert.True(t, q.BestAsk.Price.Equal(decimal.RequireFromString("0.50")))
	assert.True(t, q.BestBid.Price.Equal(decimal.RequireFromString("0.48")))
	assert.Equal(t, "5", q.MinSize)
}

func TestBuy(t *testing.T) {
	h := newHarness()
	h.ex.bal = &trading.BalanceAllowance{Balance: "0"}

	code, out, errOut := h.run("buy", token, "10", "0.5", "--order-type", "fok")
	require.Equal(t, 0, code, errOut)
	assert.True(t, h.lastAuth)

	require.Len(t, h.ex.posted, 1)
	args := h.ex.posted[0]
	assert.Equal(t, trading.Buy, args.Side)
	assert.Equal(t, token, args.TokenID)
	assert.True(t, args.Size.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, trading.FOK, h.ex.postType)

	assert.Contains(t, errOut, "could not preflight balance/allowance", "unfunded accounts get a warning")
	assert.Contains(t, out, "0xorder")
}

func TestSellSkipsPreflight(t *testing.T) {
	h := newHarness()
	code, _, _ := h.run("sell", token, "5", "0.6")
	require.Equal(t, 0, code)
	assert.Zero(t, h.ex.balanceCalls)
	require.Len(t, h.ex.posted, 1)
	assert.Equal(t, trading.Sell, h.ex.posted[0].Side)
	assert.Equal(t, trading.GTC, h.ex.postType)
}

func TestBuyMaxNeverExceedsCap(t *testing.T) {
	for _, capUSD := range []string{"2.5", "3.33", "7.77", "10.01", "49.99"} {
		t.Run(capUSD, func(t *testing.T) {
			h := newHarness()
			code, _, errOut := h.run("buy-max", token, capUSD)
			require.Equal(t, 0, code, errOut)
			require.Len(t, h.ex.posted, 1)

			args := h.ex.posted[0]
			assert.True(t, args.Notional().LessThanOrEqual(decimal.RequireFromString(capUSD)),
				"size %s * price %s exceeds cap %s", args.Size, args.Price, capUSD)
			assert.True(t, args.Price.Equal(decimal.RequireFromString("0.50")))

			require.True(t, h.ex.postOpts.TickSize.Valid)
			require.NotNil(t, h.ex.postOpts.NegRisk)
			assert.True(t, *h.ex.postOpts.NegRisk)
			assert.Equal(t, 1, h.ex.balanceCalls)
		})
	}
}

func TestBuyMaxLimitPrice(t *testing.T) {
	h := newHarness()
	code, out, errOut := h.run("buy-max", token, "9", "--price", "0.455")
	require.Equal(t, 0, code, errOut)

	require.Len(t, h.ex.posted, 1)
	assert.True(t, h.ex.posted[0].Price.Equal(decimal.RequireFromString("0.45")))
	assert.True(t, h.ex.posted[0].Size.Equal(decimal.NewFromInt(20)))
	assert.Contains(t, out, `"plan"`)
}

func TestBuyMaxBelowMinimum(t *testing.T) {
	h := newHarness()
	code, _, errOut := h.run("buy-max", token, "1")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "min order size")
	assert.Empty(t, h.ex.posted)
}

func TestRiskLimitsRejectBeforeClient(t *testing.T) {
	h := newHarness()
	path := filepath.Join(t.TempDir(), "risk.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_order_usd: 5\n"), 0o600))
	h.cfg.RiskLimitsPath = path

	code, _, errOut := h.run("buy", token, "20", "0.5")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "max_order_usd")
	assert.Zero(t, h.exchangeCalls)

	code, _, _ = h.run("buy", token, "2", "0.5")
	assert.Equal(t, 0, code)
}

func TestMissingKey(t *testing.T) {
	h := newHarness()
	h.exchangeErr = config.ErrMissingKey

	code, out, errOut := h.run("whoami")
	assert.Equal(t, 1, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "POLYMARKET_KEY")
}

func TestUpstreamError(t *testing.T) {
	h := newHarness()
	h.ex.bookErr = &clob_http.APIError{Method: "GET", Path: "/book", StatusCode: 400, Body: []byte(`{"error":"Invalid token id"}`)}

	code, _, errOut := h.run("orderbook", token)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Invalid token id")
}

func TestCancel(t *testing.T) {
	h := newHarness()
	code, _, _ := h.run("cancel", "--all")
	require.Equal(t, 0, code)
	assert.True(t, h.ex.cancelAll)

	code, out, _ := h.run("cancel", "--order-id", "0xabc", "-o", "table")
	require.Equal(t, 0, code)
	assert.Equal(t, []string{"0xabc"}, h.ex.canceled)
	assert.Contains(t, out, "canceled")
}

func TestMarkets(t *testing.T) {
	h := newHarness()
	h.ex.page = &clob_http.MarketsPage{
		NextCursor: "Mg==",
		Data: []clob_http.Market{
			{"condition_id": "0x01", "accepting_orders": false},
			{"condition_id": "0x02", "accepting_orders": true},
			{"condition_id": "0x03", "accepting_orders": true},
		},
	}
	h.ex.markets["0x02"] = clob_http.Market{"question": "Will it rain?"}

	code, out, errOut := h.run("markets", "--accepting-only", "--with-title", "--limit", "1", "--sampling", "--cursor", "MQ==")
	require.Equal(t, 0, code, errOut)
	assert.True(t, h.ex.sampling)
	assert.Equal(t, "MQ==", h.ex.cursor)

	var page clob_http.MarketsPage
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	require.Len(t, page.Data, 1)
	assert.Equal(t, "0x02", page.Data[0]["condition_id"])
	assert.Equal(t, "Will it rain?", page.Data[0]["title"])
	assert.Equal(t, "Mg==", page.NextCursor)
}

func TestMarketByID(t *testing.T) {
	h := newHarness()
	id := "0x" + strings.Repeat("AB", 32)
	h.ex.markets[strings.ToLower(id)] = clob_http.Market{"condition_id": strings.ToLower(id), "question": "Q"}

	code, out, _ := h.run("markets", "--id", id)
	require.Equal(t, 0, code)
	assert.Contains(t, out, `"question": "Q"`)
}

func TestBalance(t *testing.T) {
	h := newHarness()
	code, out, _ := h.run("balance", "--asset-type", "CONDITIONAL", "--token-id", token, "--signature-type", "1")
	require.Equal(t, 0, code)

	p := h.ex.balanceParams
	assert.Equal(t, trading.Conditional, p.AssetType)
	assert.Equal(t, token, p.TokenID)
	require.NotNil(t, p.SignatureType)
	assert.Equal(t, 1, *p.SignatureType)
	assert.Contains(t, out, "10000000")

	code, _, _ = h.run("balance")
	require.Equal(t, 0, code)
	assert.Equal(t, trading.Collateral, h.ex.balanceParams.AssetType)
	assert.Nil(t, h.ex.balanceParams.SignatureType, "unset flag defers to the client's type")
}

func TestRefreshBalance(t *testing.T) {
	h := newHarness()
	code, out, _ := h.run("refresh-balance")
	require.Equal(t, 0, code)
	assert.Equal(t, 1, h.ex.refreshCalls)
	assert.Equal(t, "\"\"\n", out)
}

func TestDiagnoseWithoutFixIsReadOnly(t *testing.T) {
	h := newHarness()
	code, out, errOut := h.run("diagnose")
	require.Equal(t, 0, code, errOut)
	assert.Zero(t, h.ex.refreshCalls)
	assert.Zero(t, h.chainCalls)
	assert.Contains(t, out, `"whoami"`)
	assert.NotContains(t, out, `"recommendations"`)

	code, out, _ = h.run("diagnose", "--onchain")
	require.Equal(t, 0, code)
	assert.Zero(t, h.ex.refreshCalls)
	assert.Equal(t, 1, h.chainCalls)
	assert.True(t, h.chain.closed)
	assert.Contains(t, out, `"onchain_allowances"`)
}

func TestDiagnoseFix(t *testing.T) {
	h := newHarness()
	h.ex.bal = &trading.BalanceAllowance{Balance: "0"}

	code, out, _ := h.run("diagnose", "--fix", "-o", "table")
	require.Equal(t, 0, code)
	assert.Equal(t, 1, h.ex.refreshCalls)
	assert.Contains(t, out, "recommendation")
}

func TestWatch(t *testing.T) {
	h := newHarness()
	h.feed.emit = []events.Event{
		{ID: token, Type: events.EventBook, Payload: events.BookEvent{Asks: []trading.PriceLevel{level("0.5", "1")}}},
		{ID: token, Type: events.EventLastTradePrice, Payload: events.LastTradeEvent{Price: decimal.RequireFromString("0.5"), Side: "BUY"}},
		{ID: token, Type: events.EventTickSizeChange, Payload: events.TickSizeEvent{OldTickSize: "0.01", NewTickSize: "0.001"}},
	}

	code, out, errOut := h.run("watch", token, "--count", "2", "--timeout", "5s")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, []string{token}, h.feed.ids)
	assert.Zero(t, h.exchangeCalls)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	var first struct {
		Type    string `json:"event_type"`
		AssetID string `json:"asset_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "book", first.Type)
	assert.Equal(t, token, first.AssetID)
	assert.Contains(t, lines[1], "last_trade_price")
}

func TestWatchTimeout(t *testing.T) {
	h := newHarness()
	code, out, _ := h.run("watch", token, "--timeout", "50ms")
	assert.Equal(t, 0, code)
	assert.Empty(t, out)
}
