package poly_auth

import (
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

const (
	clobAuthDomain  = "ClobAuthDomain"
	clobAuthVersion = "1"
	clobAuthMessage = "This message attests that I control the given wallet"
)

// Header names shared by L1 and L2 auth.
const (
	HeaderAddress    = "POLY_ADDRESS"
	HeaderSignature  = "POLY_SIGNATURE"
	HeaderTimestamp  = "POLY_TIMESTAMP"
	HeaderNonce      = "POLY_NONCE"
	HeaderAPIKey     = "POLY_API_KEY"
	HeaderPassphrase = "POLY_PASSPHRASE"
)

// Creds are the L2 API credentials issued by the exchange for a wallet.
type Creds struct {
	APIKey     string `json:"apiKey"`
	Secret     string `json:"secret"`
	Passphrase string `json:"passphrase"`
}

func (c Creds) Complete() bool {
	return c.APIKey != "" && c.Secret != "" && c.Passphrase != ""
}

// Signer produces Polymarket CLOB auth headers.
//
// L1 headers carry an EIP-712 ClobAuth signature from the wallet key and are
// only used to create or derive API credentials. L2 headers carry an
// HMAC-SHA256 of timestamp + method + path + body keyed by the API secret
// and authenticate every trading call.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
	chainID int64
	creds   Creds
	now     func() time.Time
}

// NewSigner parses a hex private key (with or without 0x).
func NewSigner(hexKey string, chainID int64) (*Signer, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		// Never echo the key material.
		return nil, fmt.Errorf("invalid private key: %d hex chars, want 64", len(hexKey))
	}
	return &Signer{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		chainID: chainID,
		now:     time.Now,
	}, nil
}

func (s *Signer) Address() common.Address       { return s.address }
func (s *Signer) PrivateKey() *ecdsa.PrivateKey { return s.key }
func (s *Signer) ChainID() int64                { return s.chainID }

func (s *Signer) SetCreds(c Creds) { s.creds = c }
func (s *Signer) Creds() Creds     { return s.creds }

// Enabled reports whether L2 credentials are loaded.
func (s *Signer) Enabled() bool {
	return s != nil && s.creds.Complete()
}

// L1Headers returns the headers for the /auth endpoints.
func (s *Signer) L1Headers(nonce int64) (http.Header, error) {
	ts := strconv.FormatInt(s.now().Unix(), 10)
	sig, err := s.signClobAuth(ts, nonce)
	if err != nil {
		return nil, err
	}

	h := http.Header{}
	h.Set(HeaderAddress, s.address.Hex())
	h.Set(HeaderSignature, sig)
	h.Set(HeaderTimestamp, ts)
	h.Set(HeaderNonce, strconv.FormatInt(nonce, 10))
	return h, nil
}

// SignRequest sets the L2 headers on req. No-op when s is nil or has no
// credentials, so public endpoints go out unsigned.
func (s *Signer) SignRequest(req *http.Request, body []byte) error {
	if !s.Enabled() {
		return nil
	}

	ts := strconv.FormatInt(s.now().Unix(), 10)
	sig, err := s.hmacSignature(ts, req.Method, req.URL.Path, body)
	if err != nil {
		return err
	}

	req.Header.Set(HeaderAddress, s.address.Hex())
	req.Header.Set(HeaderSignature, sig)
	req.Header.Set(HeaderTimestamp, ts)
	req.Header.Set(HeaderAPIKey, s.creds.APIKey)
	req.Header.Set(HeaderPassphrase, s.creds.Passphrase)
	return nil
}

func (s *Signer) hmacSignature(ts, method, path string, body []byte) (string, error) {
	secret, err := base64.URLEncoding.DecodeString(s.creds.Secret)
	if err != nil {
		secret, err = base64.StdEncoding.DecodeString(s.creds.Secret)
		if err != nil {
			return "", fmt.Errorf("decode api secret: %w", err)
		}
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(ts + method + path))
	mac.Write(body)
	return base64.URLEncoding.EncodeToString(mac.Sum(nil)), nil
}

func (s *Signer) signClobAuth(ts string, nonce int64) (string, error) {
	hash, err := ClobAuthHash(s.address, s.chainID, ts, nonce)
	if err != nil {
		return "", err
	}
	sig, err := crypto.Sign(hash, s.key)
	if err != nil {
		return "", fmt.Errorf("sign clob auth: %w", err)
	}
	sig[64] += 27
	return hexutil.Encode(sig), nil
}

// ClobAuthHash is the EIP-712 digest the L1 signature commits to.
func ClobAuthHash(address common.Address, chainID int64, ts string, nonce int64) ([]byte, error) {
	typed := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
			},
			"ClobAuth": {
				{Name: "address", Type: "address"},
				{Name: "timestamp", Type: "string"},
				{Name: "nonce", Type: "uint256"},
				{Name: "message", Type: "string"},
			},
		},
		PrimaryType: "ClobAuth",
		Domain: apitypes.TypedDataDomain{
			Name:    clobAuthDomain,
			Version: clobAuthVersion,
			ChainId: math.NewHexOrDecimal256(chainID),
		},
		Message: apitypes.TypedDataMessage{
			"address":   address.Hex(),
			"timestamp": ts,
			"nonce":     big.NewInt(nonce),
			"message":   clobAuthMessage,
		},
	}

	hash, _, err := apitypes.TypedDataAndHash(typed)
	if err != nil {
		return nil, fmt.Errorf("hash clob auth: %w", err)
	}
	return hash, nil
}
