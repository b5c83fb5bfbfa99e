package clob_http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/charleschow/polyclob/internal/adapters/poly_auth"
	"github.com/charleschow/polyclob/internal/telemetry"
)

func (c *Client) CreateAPIKey(ctx context.Context, nonce int64) (poly_auth.Creds, error) {
	return c.l1Creds(ctx, http.MethodPost, "/auth/api-key", nonce)
}

func (c *Client) DeriveAPIKey(ctx context.Context, nonce int64) (poly_auth.Creds, error) {
	return c.l1Creds(ctx, http.MethodGet, "/auth/derive-api-key", nonce)
}

// CreateOrDeriveAPIKey creates credentials for the wallet, falling back to
// deriving the existing ones when the exchange refuses to create a second
// set.
func (c *Client) CreateOrDeriveAPIKey(ctx context.Context) (poly_auth.Creds, error) {
	creds, createErr := c.CreateAPIKey(ctx, 0)
	if createErr == nil {
		return creds, nil
	}
	telemetry.Debugf("clob_http: create api key failed, deriving: %v", createErr)

	creds, err := c.DeriveAPIKey(ctx, 0)
	if err != nil {
		return poly_auth.Creds{}, errors.Join(createErr, err)
	}
	return creds, nil
}

func (c *Client) l1Creds(ctx context.Context, method, path string, nonce int64) (poly_auth.Creds, error) {
	if c.signer == nil {
		return poly_auth.Creds{}, fmt.Errorf("%s %s: %w", method, path, ErrAuthRequired)
	}
	header, err := c.signer.L1Headers(nonce)
	if err != nil {
		return poly_auth.Creds{}, err
	}

	var creds poly_auth.Creds
	if err := c.send(ctx, request{method: method, path: path, header: header}, &creds); err != nil {
		return poly_auth.Creds{}, err
	}
	if !creds.Complete() {
		return poly_auth.Creds{}, fmt.Errorf("%s %s: incomplete credentials in response", method, path)
	}
	return creds, nil
}
