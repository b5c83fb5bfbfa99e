package trading

import (
	"sort"

	"github.com/shopspring/decimal"
)

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// OrderType is the time-in-force sent with a posted order.
type OrderType string

const (
	GTC OrderType = "GTC" // good till cancelled
	FOK OrderType = "FOK" // fill or kill
	FAK OrderType = "FAK" // fill and kill
)

func ParseOrderType(s string) (OrderType, bool) {
	switch OrderType(s) {
	case GTC, FOK, FAK:
		return OrderType(s), true
	}
	return "", false
}

// OrderArgs describes a limit order before amounts are computed and signed.
type OrderArgs struct {
	TokenID string
	Side    Side
	Price   decimal.Decimal
	Size    decimal.Decimal
}

func (a OrderArgs) Notional() decimal.Decimal {
	return a.Price.Mul(a.Size)
}

type PriceLevel struct {
	Price decimal.Decimal `json:"price"`
	Size  decimal.Decimal `json:"size"`
}

// OrderBook is the /book summary for one outcome token.
type OrderBook struct {
	Market         string       `json:"market"`
	AssetID        string       `json:"asset_id"`
	Timestamp      string       `json:"timestamp"`
	Hash           string       `json:"hash"`
	Bids           []PriceLevel `json:"bids"`
	Asks           []PriceLevel `json:"asks"`
	MinOrderSize   string       `json:"min_order_size"`
	TickSize       string       `json:"tick_size"`
	NegRisk        bool         `json:"neg_risk"`
	LastTradePrice string       `json:"last_trade_price"`
}

// AssetType selects which balance /balance-allowance reports.
type AssetType string

const (
	Collateral  AssetType = "COLLATERAL"
	Conditional AssetType = "CONDITIONAL"
)

// BalanceAllowance amounts are in base units (6 decimals for USDC and
// outcome tokens). Older API versions return a single allowance, newer
// ones one per spender contract.
type BalanceAllowance struct {
	Balance    string            `json:"balance"`
	Allowance  string            `json:"allowance,omitempty"`
	Allowances map[string]string `json:"allowances,omitempty"`
}

func (b BalanceAllowance) BalanceValue() decimal.Decimal {
	return parseOrZero(b.Balance)
}

// MaxAllowance is the largest allowance across spenders.
func (b BalanceAllowance) MaxAllowance() decimal.Decimal {
	best := parseOrZero(b.Allowance)
	for _, v := range b.Allowances {
		if d := parseOrZero(v); d.GreaterThan(best) {
			best = d
		}
	}
	return best
}

// Spenders returns the allowance keys in a stable order.
func (b BalanceAllowance) Spenders() []string {
	out := make([]string, 0, len(b.Allowances))
	for k := range b.Allowances {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Funded reports whether both the balance and some allowance are positive.
func (b BalanceAllowance) Funded() bool {
	return b.BalanceValue().IsPositive() && b.MaxAllowance().IsPositive()
}

func parseOrZero(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
