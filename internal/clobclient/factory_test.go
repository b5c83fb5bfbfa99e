package clobclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charleschow/polyclob/internal/config"
)

const (
	testKey     = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

// countingServer counts requests and answers the L1 key endpoints.
func countingServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/auth/api-key" {
			_, _ = w.Write([]byte(`{"apiKey":"k","secret":"czE=","passphrase":"p"}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func baseConfig(host string) *config.Config {
	return &config.Config{
		Host:    host,
		ChainID: config.DefaultChainID,
		Timeout: 5 * time.Second,
	}
}

func TestNew_MissingKeyFailsBeforeNetwork(t *testing.T) {
	srv, hits := countingServer(t)

	_, err := New(context.Background(), baseConfig(srv.URL), true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrMissingKey))
	assert.Zero(t, hits.Load())
}

func TestNew_PublicClientNeedsNoKey(t *testing.T) {
	srv, hits := countingServer(t)

	c, err := New(context.Background(), baseConfig(srv.URL), false)
	require.NoError(t, err)
	assert.Nil(t, c.Signer())
	assert.Zero(t, hits.Load())
}

func TestNew_InvalidKey(t *testing.T) {
	cfg := baseConfig("http://unused")
	cfg.PrivateKey = "not-hex"

	_, err := New(context.Background(), cfg, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POLYMARKET_KEY")
	assert.NotContains(t, err.Error(), "not-hex")
}

func TestNew_SignerMismatch(t *testing.T) {
	srv, hits := countingServer(t)
	cfg := baseConfig(srv.URL)
	cfg.PrivateKey = testKey
	cfg.Signer = "0x0000000000000000000000000000000000000001"

	_, err := New(context.Background(), cfg, true)
	assert.True(t, errors.Is(err, ErrSignerMismatch))
	assert.Zero(t, hits.Load())
}

func TestNew_BadFunder(t *testing.T) {
	cfg := baseConfig("http://unused")
	cfg.PrivateKey = testKey
	cfg.Funder = "0xnothex"

	_, err := New(context.Background(), cfg, true)
	assert.ErrorContains(t, err, "POLYMARKET_FUNDER")
}

func TestNew_EnvCredsSkipDerivation(t *testing.T) {
	srv, hits := countingServer(t)
	cfg := baseConfig(srv.URL)
	cfg.PrivateKey = "0x" + testKey
	cfg.Signer = testAddress
	cfg.Funder = "0x00000000000000000000000000000000000000f1"
	cfg.SignatureType = config.SigTypePolyProxy
	cfg.APIKey, cfg.APISecret, cfg.APIPassphrase = "k", "czE=", "p"

	c, err := New(context.Background(), cfg, true)
	require.NoError(t, err)
	assert.Zero(t, hits.Load())

	id := c.Identity()
	assert.Equal(t, testAddress, id.Address)
	assert.Equal(t, common.HexToAddress(cfg.Funder).Hex(), id.Funder)
	assert.Equal(t, config.SigTypePolyProxy, id.SignatureType)
	assert.True(t, c.Signer().Enabled())
}

func TestNew_DerivesCreds(t *testing.T) {
	srv, hits := countingServer(t)
	cfg := baseConfig(srv.URL)
	cfg.PrivateKey = testKey

	c, err := New(context.Background(), cfg, true)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, "k", c.Signer().Creds().APIKey)
}
