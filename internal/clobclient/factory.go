// Package clobclient builds exchange clients from the loaded configuration.
package clobclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/charleschow/polyclob/internal/adapters/outbound/clob_http"
	"github.com/charleschow/polyclob/internal/adapters/outbound/polygon_rpc"
	"github.com/charleschow/polyclob/internal/adapters/poly_auth"
	"github.com/charleschow/polyclob/internal/config"
	"github.com/charleschow/polyclob/internal/telemetry"
)

// ErrSignerMismatch is returned when POLYMARKET_SIGNER is not the address
// derived from POLYMARKET_KEY.
var ErrSignerMismatch = errors.New("POLYMARKET_SIGNER does not match POLYMARKET_KEY")

// New returns a public client when requireAuth is false. Otherwise it
// loads the signing key and attaches L2 credentials, taking them from the
// environment or creating/deriving them through the L1 endpoints.
func New(ctx context.Context, cfg *config.Config, requireAuth bool) (*clob_http.Client, error) {
	opts := []clob_http.Option{
		clob_http.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		clob_http.WithSignatureType(cfg.SignatureType),
	}

	if !requireAuth {
		return clob_http.NewClient(cfg.Host, cfg.ChainID, opts...)
	}

	if err := cfg.RequireKey(); err != nil {
		return nil, err
	}
	signer, err := poly_auth.NewSigner(cfg.PrivateKey, cfg.ChainID)
	if err != nil {
		return nil, fmt.Errorf("POLYMARKET_KEY: %w", err)
	}

	if cfg.Signer != "" {
		if !common.IsHexAddress(cfg.Signer) {
			return nil, fmt.Errorf("POLYMARKET_SIGNER is not an address: %q", cfg.Signer)
		}
		if common.HexToAddress(cfg.Signer) != signer.Address() {
			return nil, fmt.Errorf("%w: key address is %s", ErrSignerMismatch, signer.Address().Hex())
		}
	}

	if cfg.Funder != "" {
		if !common.IsHexAddress(cfg.Funder) {
			return nil, fmt.Errorf("POLYMARKET_FUNDER is not an address: %q", cfg.Funder)
		}
		opts = append(opts, clob_http.WithFunder(common.HexToAddress(cfg.Funder)))
	} else if cfg.SignatureType != config.SigTypeEOA {
		telemetry.Warnf("POLYMARKET_SIG_TYPE=%d without POLYMARKET_FUNDER; orders use the signer as maker", cfg.SignatureType)
	}

	client, err := clob_http.NewClient(cfg.Host, cfg.ChainID, append(opts, clob_http.WithSigner(signer))...)
	if err != nil {
		return nil, err
	}

	if cfg.HasAPICreds() {
		signer.SetCreds(poly_auth.Creds{
			APIKey:     cfg.APIKey,
			Secret:     cfg.APISecret,
			Passphrase: cfg.APIPassphrase,
		})
		return client, nil
	}

	creds, err := client.CreateOrDeriveAPIKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("api credentials: %w", err)
	}
	signer.SetCreds(creds)
	telemetry.Debugf("clobclient: api credentials ready for %s", signer.Address().Hex())
	return client, nil
}

// NewRPC dials the configured Polygon RPC endpoint.
func NewRPC(ctx context.Context, cfg *config.Config) (*polygon_rpc.Client, error) {
	return polygon_rpc.Dial(ctx, cfg.RPCURL, cfg.ChainID)
}
