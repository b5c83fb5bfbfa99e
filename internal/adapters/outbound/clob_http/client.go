package clob_http

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/polymarket/go-order-utils/pkg/builder"
	"github.com/polymarket/go-order-utils/pkg/model"
	"golang.org/x/time/rate"

	"github.com/charleschow/polyclob/internal/adapters/poly_auth"
	"github.com/charleschow/polyclob/internal/telemetry"
)

// ErrAuthRequired is returned by trading calls on a client without L2
// credentials.
var ErrAuthRequired = errors.New("authenticated client required")

// Client talks to the Polymarket CLOB REST API. Public endpoints work
// without a signer; trading endpoints need one with L2 credentials.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	signer       *poly_auth.Signer
	readLimiter  *rate.Limiter
	writeLimiter *rate.Limiter

	chainID   int64
	sigType   int
	funder    common.Address
	contracts Contracts
	orders    orderBuilder
}

// orderBuilder is the slice of go-order-utils used to build and EIP-712
// sign orders.
type orderBuilder interface {
	BuildSignedOrder(key *ecdsa.PrivateKey, data *model.OrderData, contract model.VerifyingContract) (*model.SignedOrder, error)
}

type Option func(*Client)

func WithSigner(s *poly_auth.Signer) Option {
	return func(c *Client) { c.signer = s }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithFunder sets the wallet that holds funds. Defaults to the signer.
func WithFunder(addr common.Address) Option {
	return func(c *Client) { c.funder = addr }
}

func WithSignatureType(t int) Option {
	return func(c *Client) { c.sigType = t }
}

func NewClient(baseURL string, chainID int64, opts ...Option) (*Client, error) {
	contracts, err := ContractsFor(chainID)
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		readLimiter:  rate.NewLimiter(rate.Limit(20), 20),
		writeLimiter: rate.NewLimiter(rate.Limit(10), 10),
		chainID:      chainID,
		contracts:    contracts,
		orders:       builder.NewExchangeOrderBuilderImpl(big.NewInt(chainID), nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Contracts() Contracts { return c.contracts }

// Signer returns nil for a public client.
func (c *Client) Signer() *poly_auth.Signer { return c.signer }

// SigningKey returns nil for a public client.
func (c *Client) SigningKey() *ecdsa.PrivateKey {
	if c.signer == nil {
		return nil
	}
	return c.signer.PrivateKey()
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	header http.Header // L1 headers for /auth endpoints
	l2     bool
}

func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	if r.l2 && !c.signer.Enabled() {
		return nil, fmt.Errorf("%s %s: %w", r.method, r.path, ErrAuthRequired)
	}

	lim := c.readLimiter
	if r.method != http.MethodGet {
		lim = c.writeLimiter
	}
	waitStart := time.Now()
	if err := lim.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	telemetry.Metrics.RateLimitWait.Record(time.Since(waitStart))

	var payload []byte
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		payload = data
	}

	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, vs := range r.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if r.l2 {
		if err := c.signer.SignRequest(req, payload); err != nil {
			return nil, fmt.Errorf("sign: %w", err)
		}
	}

	telemetry.Metrics.HTTPRequests.Inc()
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		telemetry.Metrics.HTTPErrors.Inc()
		return nil, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	elapsed := time.Since(start)
	telemetry.Metrics.HTTPLatency.Record(elapsed)
	telemetry.Debugf("clob_http: %s %s -> %d (%s)", r.method, r.path, resp.StatusCode, elapsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		telemetry.Metrics.HTTPErrors.Inc()
		return nil, &APIError{Method: r.method, Path: r.path, StatusCode: resp.StatusCode, Body: respBody}
	}
	return respBody, nil
}

// send runs r and decodes the response into out. A *json.RawMessage
// receives the body untouched.
func (c *Client) send(ctx context.Context, r request, out any) error {
	body, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		if len(bytes.TrimSpace(body)) == 0 {
			body = []byte("null")
		}
		*raw = append((*raw)[:0], body...)
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal %s: %w", r.path, err)
	}
	return nil
}
