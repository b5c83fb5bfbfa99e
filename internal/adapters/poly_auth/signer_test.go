package poly_auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Well-known development key (anvil/hardhat account #0).
const (
	testKey     = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func fixedSigner(t *testing.T) *Signer {
	t.Helper()
	s, err := NewSigner(testKey, 137)
	require.NoError(t, err)
	s.now = func() time.Time { return time.Unix(1700000000, 0) }
	return s
}

func TestNewSigner(t *testing.T) {
	s, err := NewSigner(testKey, 137)
	require.NoError(t, err)
	assert.Equal(t, testAddress, s.Address().Hex())

	noPrefix, err := NewSigner(strings.TrimPrefix(testKey, "0x"), 137)
	require.NoError(t, err)
	assert.Equal(t, s.Address(), noPrefix.Address())

	_, err = NewSigner("0xnothex", 137)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "nothex")
}

func TestL1Headers_RecoverToWallet(t *testing.T) {
	s := fixedSigner(t)

	h, err := s.L1Headers(0)
	require.NoError(t, err)

	assert.Equal(t, testAddress, h.Get(HeaderAddress))
	assert.Equal(t, "1700000000", h.Get(HeaderTimestamp))
	assert.Equal(t, "0", h.Get(HeaderNonce))

	sig, err := hexutil.Decode(h.Get(HeaderSignature))
	require.NoError(t, err)
	require.Len(t, sig, 65)
	require.Contains(t, []byte{27, 28}, sig[64])
	sig[64] -= 27

	hash, err := ClobAuthHash(s.Address(), 137, "1700000000", 0)
	require.NoError(t, err)

	pub, err := crypto.SigToPub(hash, sig)
	require.NoError(t, err)
	assert.Equal(t, s.Address(), crypto.PubkeyToAddress(*pub))
}

func TestClobAuthHash_DependsOnChain(t *testing.T) {
	s := fixedSigner(t)
	polygon, err := ClobAuthHash(s.Address(), 137, "1", 0)
	require.NoError(t, err)
	amoy, err := ClobAuthHash(s.Address(), 80002, "1", 0)
	require.NoError(t, err)
	assert.NotEqual(t, polygon, amoy)
}

func TestSignRequest(t *testing.T) {
	secret := base64.URLEncoding.EncodeToString([]byte("super-secret-bytes"))

	t.Run("without creds is a no-op", func(t *testing.T) {
		s := fixedSigner(t)
		req, _ := http.NewRequest(http.MethodGet, "https://clob.example/book?token_id=1", nil)
		require.NoError(t, s.SignRequest(req, nil))
		assert.Empty(t, req.Header.Get(HeaderSignature))
	})

	t.Run("nil signer is a no-op", func(t *testing.T) {
		var s *Signer
		req, _ := http.NewRequest(http.MethodGet, "https://clob.example/book", nil)
		require.NoError(t, s.SignRequest(req, nil))
		assert.Empty(t, req.Header)
	})

	t.Run("hmac over ts+method+path+body", func(t *testing.T) {
		s := fixedSigner(t)
		s.SetCreds(Creds{APIKey: "k", Secret: secret, Passphrase: "p"})

		body := []byte(`{"orderID":"0x1"}`)
		req, _ := http.NewRequest(http.MethodDelete, "https://clob.example/order?ignored=1", nil)
		require.NoError(t, s.SignRequest(req, body))

		mac := hmac.New(sha256.New, []byte("super-secret-bytes"))
		mac.Write([]byte("1700000000DELETE/order" + string(body)))
		want := base64.URLEncoding.EncodeToString(mac.Sum(nil))

		assert.Equal(t, want, req.Header.Get(HeaderSignature))
		assert.Equal(t, "k", req.Header.Get(HeaderAPIKey))
		assert.Equal(t, "p", req.Header.Get(HeaderPassphrase))
		assert.Equal(t, "1700000000", req.Header.Get(HeaderTimestamp))
		assert.Equal(t, testAddress, req.Header.Get(HeaderAddress))
	})

	t.Run("bad secret", func(t *testing.T) {
		s := fixedSigner(t)
		s.SetCreds(Creds{APIKey: "k", Secret: "%%%", Passphrase: "p"})
		req, _ := http.NewRequest(http.MethodGet, "https://clob.example/x", nil)
		assert.Error(t, s.SignRequest(req, nil))
	})
}
