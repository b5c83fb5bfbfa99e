package trading

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// TokenDecimals is the on-chain precision of USDC and outcome tokens.
const TokenDecimals = 6

// DefaultTickSize applies when the book does not report one.
var DefaultTickSize = decimal.RequireFromString("0.01")

var ErrPriceOutOfRange = errors.New("price out of range")

// RoundingConfig holds the decimal places the exchange accepts for a tick
// size: price, size and the resulting notional amount.
type RoundingConfig struct {
	Price  int32
	Size   int32
	Amount int32
}

var roundingConfigs = []struct {
	tick decimal.Decimal
	rc   RoundingConfig
}{
	{decimal.RequireFromString("0.1"), RoundingConfig{Price: 1, Size: 2, Amount: 3}},
	{decimal.RequireFromString("0.01"), RoundingConfig{Price: 2, Size: 2, Amount: 4}},
	{decimal.RequireFromString("0.001"), RoundingConfig{Price: 3, Size: 2, Amount: 5}},
	{decimal.RequireFromString("0.0001"), RoundingConfig{Price: 4, Size: 2, Amount: 6}},
}

func ConfigForTick(tick decimal.Decimal) (RoundingConfig, error) {
	for _, c := range roundingConfigs {
		if c.tick.Equal(tick) {
			return c.rc, nil
		}
	}
	return RoundingConfig{}, fmt.Errorf("unsupported tick size %s", tick)
}

// ParseTickSize parses the book's tick_size, defaulting to 0.01.
func ParseTickSize(s string) (decimal.Decimal, error) {
	if s == "" {
		return DefaultTickSize, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse tick size %q: %w", s, err)
	}
	if _, err := ConfigForTick(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// CheckPrice requires tick <= price <= 1-tick.
func CheckPrice(price, tick decimal.Decimal) error {
	if price.LessThan(tick) || price.GreaterThan(decimal.NewFromInt(1).Sub(tick)) {
		return fmt.Errorf("%w: %s not within [%s, %s]",
			ErrPriceOutOfRange, price, tick, decimal.NewFromInt(1).Sub(tick))
	}
	return nil
}

// OrderAmounts converts a price/size pair into the integer maker and taker
// amounts (6 decimals) signed into the order. A BUY gives collateral and
// receives tokens; a SELL gives tokens and receives collateral.
func OrderAmounts(side Side, size, price, tick decimal.Decimal) (maker, taker decimal.Decimal, err error) {
	rc, err := ConfigForTick(tick)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	rawPrice := price.Round(rc.Price)
	rawSize := size.RoundDown(rc.Size)
	if !rawSize.IsPositive() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("size %s rounds to zero", size)
	}
	notional := roundAmount(rawSize.Mul(rawPrice), rc.Amount)

	switch side {
	case Buy:
		return toTokenUnits(notional), toTokenUnits(rawSize), nil
	case Sell:
		return toTokenUnits(rawSize), toTokenUnits(notional), nil
	default:
		return decimal.Zero, decimal.Zero, fmt.Errorf("unknown side %q", side)
	}
}

// roundAmount trims excess precision: first up at amount+4 places to absorb
// float noise, then down to the allowed places.
func roundAmount(d decimal.Decimal, places int32) decimal.Decimal {
	if d.Equal(d.RoundDown(places)) {
		return d
	}
	d = d.RoundUp(places + 4)
	if !d.Equal(d.RoundDown(places)) {
		d = d.RoundDown(places)
	}
	return d
}

func toTokenUnits(d decimal.Decimal) decimal.Decimal {
	return d.Shift(TokenDecimals).Round(0)
}
