package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultHost    = "https://clob.polymarket.com"
	DefaultWSURL   = "wss://ws-subscriptions-clob.polymarket.com/ws/market"
	DefaultRPCURL  = "https://polygon-rpc.com"
	DefaultChainID = 137 // Polygon mainnet

	defaultEnvFile = ".polymarket.env"
)

// ErrMissingKey is returned when an authenticated command runs without
// POLYMARKET_KEY.
var ErrMissingKey = errors.New("POLYMARKET_KEY environment variable not set")

// Signature types understood by the exchange.
const (
	SigTypeEOA        = 0
	SigTypePolyProxy  = 1
	SigTypeGnosisSafe = 2
)

type Config struct {
	EnvFile string

	// Exchange
	Host    string
	WSURL   string
	ChainID int64

	// Wallet
	PrivateKey    string
	SignatureType int
	Funder        string // proxy / safe wallet that holds funds
	Signer        string // expected key-derived address, checked on startup
	RPCURL        string

	// Pre-provisioned L2 credentials. When any is empty they are
	// created or derived from the signing key.
	APIKey        string
	APISecret     string
	APIPassphrase string

	RiskLimitsPath string

	Timeout  time.Duration
	LogLevel string
}

// Load applies the env file (best effort) and reads the process
// environment. Only malformed numeric values are errors here; missing
// credentials are reported by RequireKey so read-only commands still work.
func Load() (*Config, error) {
	path := EnvFilePath()
	LoadEnvFile(path)

	chainID, err := envInt("POLYMARKET_CHAIN_ID", DefaultChainID)
	if err != nil {
		return nil, err
	}
	sigType, err := envInt("POLYMARKET_SIG_TYPE", SigTypeEOA)
	if err != nil {
		return nil, err
	}
	timeoutSec, err := envInt("POLYMARKET_TIMEOUT_SEC", 30)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		EnvFile: path,

		Host:    strings.TrimRight(envStr("POLYMARKET_HOST", DefaultHost), "/"),
		WSURL:   envStr("POLYMARKET_WS_URL", DefaultWSURL),
		ChainID: int64(chainID),

		PrivateKey:    envStr("POLYMARKET_KEY", ""),
		SignatureType: sigType,
		Funder:        envStr("POLYMARKET_FUNDER", ""),
		Signer:        envStr("POLYMARKET_SIGNER", ""),
		RPCURL:        envStr("POLYMARKET_RPC", DefaultRPCURL),

		APIKey:        envStr("POLYMARKET_API_KEY", ""),
		APISecret:     envStr("POLYMARKET_API_SECRET", ""),
		APIPassphrase: envStr("POLYMARKET_API_PASSPHRASE", ""),

		RiskLimitsPath: envStr("POLYMARKET_RISK_LIMITS", ""),

		Timeout:  time.Duration(timeoutSec) * time.Second,
		LogLevel: envStr("LOG_LEVEL", "warn"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// EnvFilePath returns POLYMARKET_ENV_FILE or ~/.polymarket.env.
func EnvFilePath() string {
	if p := os.Getenv("POLYMARKET_ENV_FILE"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return defaultEnvFile
	}
	return filepath.Join(home, defaultEnvFile)
}

// Validate checks value ranges. It does not require credentials.
func (c *Config) Validate() error {
	if c.Host == "" {
		return errors.New("POLYMARKET_HOST must not be empty")
	}
	if c.ChainID <= 0 {
		return fmt.Errorf("POLYMARKET_CHAIN_ID must be positive, got %d", c.ChainID)
	}
	switch c.SignatureType {
	case SigTypeEOA, SigTypePolyProxy, SigTypeGnosisSafe:
	default:
		return fmt.Errorf("POLYMARKET_SIG_TYPE must be 0, 1 or 2, got %d", c.SignatureType)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("POLYMARKET_TIMEOUT_SEC must be positive, got %s", c.Timeout)
	}
	return nil
}

// RequireKey reports ErrMissingKey when no signing key is configured.
func (c *Config) RequireKey() error {
	if strings.TrimSpace(c.PrivateKey) == "" {
		return ErrMissingKey
	}
	return nil
}

// HasAPICreds reports whether all three L2 credential parts are set.
func (c *Config) HasAPICreds() bool {
	return c.APIKey != "" && c.APISecret != "" && c.APIPassphrase != ""
}

func envStr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return n, nil
}
