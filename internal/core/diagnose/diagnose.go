// Package diagnose explains why an account cannot trade: missing funds,
// missing allowances, or an exchange view that lags the chain.
package diagnose

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/charleschow/polyclob/internal/adapters/outbound/clob_http"
	"github.com/charleschow/polyclob/internal/config"
	"github.com/charleschow/polyclob/internal/core/trading"
	"github.com/charleschow/polyclob/internal/telemetry"
)

type Options struct {
	Onchain bool // query ERC-20 allowances over RPC
	Fix     bool // refresh the exchange view and emit recommendations
	Approve bool // with Fix: send approve txs for zero allowances (EOA only)
}

// Deps are the collaborators Run talks to. Chain may be nil unless Onchain
// or Approve is set; Key is only used for approvals.
type Deps struct {
	Exchange Exchange
	Chain    Chain
	Key      *ecdsa.PrivateKey
}

type RefreshResult struct {
	OK       bool            `json:"ok"`
	Response json.RawMessage `json:"response,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// OnchainAllowance is one spender's ERC-20 allowance, or the error that
// prevented reading it.
type OnchainAllowance struct {
	Allowance string `json:"allowance,omitempty"`
	Error     string `json:"error,omitempty"`

	value *big.Int
}

type Approval struct {
	TxHash string `json:"tx_hash,omitempty"`
	Error  string `json:"error,omitempty"`
}

type Report struct {
	WhoAmI            clob_http.Identity          `json:"whoami"`
	Refresh           *RefreshResult              `json:"refresh,omitempty"`
	BalanceAllowance  *trading.BalanceAllowance   `json:"balance_allowance"`
	OnchainAllowances map[string]OnchainAllowance `json:"onchain_allowances,omitempty"`
	Recommendations   []string                    `json:"recommendations,omitempty"`
	NextSteps         []string                    `json:"next_steps,omitempty"`
	Approvals         map[string]Approval         `json:"approvals,omitempty"`
}

// Run gathers the report step by step. Nothing mutating is called unless
// opts.Fix is set.
func Run(ctx context.Context, deps Deps, opts Options) (*Report, error) {
	if opts.Approve && !opts.Fix {
		return nil, fmt.Errorf("approve requires fix")
	}
	onchain := opts.Onchain || opts.Approve
	if onchain && deps.Chain == nil {
		return nil, fmt.Errorf("onchain check requires an rpc client")
	}

	who := deps.Exchange.Identity()
	r := &Report{WhoAmI: who}

	collateral := clob_http.BalanceAllowanceParams{AssetType: trading.Collateral}

	if opts.Fix {
		raw, err := deps.Exchange.UpdateBalanceAllowance(ctx, collateral)
		if err != nil {
			telemetry.Warnf("diagnose: refresh failed: %v", err)
			r.Refresh = &RefreshResult{Error: err.Error()}
		} else {
			r.Refresh = &RefreshResult{OK: true, Response: raw}
		}
	}

	bal, err := deps.Exchange.GetBalanceAllowance(ctx, collateral)
	if err != nil {
		return nil, fmt.Errorf("balance allowance: %w", err)
	}
	r.BalanceAllowance = bal

	if onchain {
		r.OnchainAllowances = checkOnchain(ctx, deps.Chain, who, bal)
	}

	if opts.Fix {
		r.Recommendations, r.NextSteps = recommend(who, bal, r.OnchainAllowances)
	}

	if opts.Approve {
		r.Approvals = approveMissing(ctx, deps, who, r.OnchainAllowances)
	}
	return r, nil
}

func owner(who clob_http.Identity) common.Address {
	if who.Funder != "" {
		return common.HexToAddress(who.Funder)
	}
	return common.HexToAddress(who.Address)
}

// spenders are those the exchange reports allowances for, or the main
// exchange contract when it reports none.
func spenders(who clob_http.Identity, bal *trading.BalanceAllowance) []string {
	if s := bal.Spenders(); len(s) > 0 {
		return s
	}
	return []string{who.Exchange}
}

func checkOnchain(ctx context.Context, chain Chain, who clob_http.Identity, bal *trading.BalanceAllowance) map[string]OnchainAllowance {
	token := common.HexToAddress(who.Collateral)
	own := owner(who)

	out := make(map[string]OnchainAllowance)
	for _, sp := range spenders(who, bal) {
		v, err := chain.Allowance(ctx, token, own, common.HexToAddress(sp))
		if err != nil {
			telemetry.Warnf("diagnose: onchain allowance for %s: %v", sp, err)
			out[sp] = OnchainAllowance{Error: err.Error()}
			continue
		}
		out[sp] = OnchainAllowance{Allowance: v.String(), value: v}
	}
	return out
}

func recommend(who clob_http.Identity, bal *trading.BalanceAllowance, onchain map[string]OnchainAllowance) (recs, steps []string) {
	apiAllowance := bal.MaxAllowance()

	if !bal.BalanceValue().IsPositive() {
		recs = append(recs, "Fund the proxy wallet (funder) with USDC on Polygon.")
		steps = append(steps, "Fund USDC to the proxy wallet address shown in whoami.funder.")
	}
	if !apiAllowance.IsPositive() {
		recs = append(recs, fmt.Sprintf("Approve USDC to CLOB Exchange in UI (spender %s).", who.Exchange))
		if who.SignatureType == config.SigTypeEOA {
			steps = append(steps, "Run: polyclob diagnose --onchain --fix --approve")
		} else {
			steps = append(steps, fmt.Sprintf("Open Polymarket, click Buy, approve USDC (spender %s).", who.Exchange))
		}
	}

	if !apiAllowance.IsPositive() && anyPositive(onchain) {
		recs = append(recs, "Onchain allowance exists but API shows 0: run refresh-balance.")
		steps = append(steps, "Run: polyclob refresh-balance --asset-type collateral")
	}
	return recs, steps
}

func anyPositive(onchain map[string]OnchainAllowance) bool {
	for _, a := range onchain {
		if a.value != nil && a.value.Sign() > 0 {
			return true
		}
	}
	return false
}

// approveMissing sends an unlimited approve for every spender whose
// onchain allowance read back as zero. Proxy and safe wallets approve
// through their own contracts, so only EOA accounts are handled.
func approveMissing(ctx context.Context, deps Deps, who clob_http.Identity, onchain map[string]OnchainAllowance) map[string]Approval {
	out := make(map[string]Approval)

	if who.SignatureType != config.SigTypeEOA {
		telemetry.Warnf("diagnose: approvals skipped for signature type %d; approve from the Polymarket UI", who.SignatureType)
		return out
	}
	if deps.Key == nil {
		telemetry.Warnf("diagnose: approvals skipped, no signing key")
		return out
	}
	if owner(who) != common.HexToAddress(who.Address) {
		telemetry.Warnf("diagnose: approvals skipped, funder %s is not the signer", who.Funder)
		return out
	}

	token := common.HexToAddress(who.Collateral)
	for sp, a := range onchain {
		if a.value == nil || a.value.Sign() > 0 {
			continue
		}
		hash, err := deps.Chain.Approve(ctx, deps.Key, token, common.HexToAddress(sp), math.MaxBig256)
		if err != nil {
			out[sp] = Approval{Error: err.Error()}
			continue
		}
		out[sp] = Approval{TxHash: hash.Hex()}
	}
	return out
}
