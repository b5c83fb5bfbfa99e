package trading

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RiskGuard enforces per-order notional and size caps. A nil guard, or a
// zero cap, allows everything.
type RiskGuard struct {
	maxOrderUSD  decimal.Decimal
	maxOrderSize decimal.Decimal
}

func NewRiskGuard(maxOrderUSD, maxOrderSize float64) *RiskGuard {
	return &RiskGuard{
		maxOrderUSD:  decimal.NewFromFloat(maxOrderUSD),
		maxOrderSize: decimal.NewFromFloat(maxOrderSize),
	}
}

func (r *RiskGuard) Check(args OrderArgs) error {
	if r == nil {
		return nil
	}
	if r.maxOrderSize.IsPositive() && args.Size.GreaterThan(r.maxOrderSize) {
		return fmt.Errorf("risk limit: size %s exceeds max_order_size %s", args.Size, r.maxOrderSize)
	}
	if notional := args.Notional(); r.maxOrderUSD.IsPositive() && notional.GreaterThan(r.maxOrderUSD) {
		return fmt.Errorf("risk limit: notional $%s exceeds max_order_usd $%s", notional, r.maxOrderUSD)
	}
	return nil
}
