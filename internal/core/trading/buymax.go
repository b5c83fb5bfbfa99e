package trading

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// MinMarketableNotional is the smallest USD notional the exchange accepts
// for an order that crosses the book.
var MinMarketableNotional = decimal.NewFromInt(1)

var ErrNoAsks = errors.New("no asks available for this token")

// BuyMaxPlan is a BUY sized to spend at most the cap.
type BuyMaxPlan struct {
	Price      decimal.Decimal `json:"price"`
	Size       decimal.Decimal `json:"size"`
	Cost       decimal.Decimal `json:"cost"`
	Cap        decimal.Decimal `json:"cap"`
	Marketable bool            `json:"marketable"`
}

func (p BuyMaxPlan) Args(tokenID string) OrderArgs {
	return OrderArgs{TokenID: tokenID, Side: Buy, Price: p.Price, Size: p.Size}
}

// PlanBuyMax sizes a BUY so that Size*Price never exceeds capUSD. The price
// is the given limit or the best ask, snapped down to the book's tick; the
// size is truncated to the exchange's size precision. When the truncated
// size is under the book minimum the minimum is used if it still fits the
// cap.
func PlanBuyMax(book *OrderBook, capUSD decimal.Decimal, limit decimal.NullDecimal) (BuyMaxPlan, error) {
	if !capUSD.IsPositive() {
		return BuyMaxPlan{}, errors.New("max_usd must be > 0")
	}

	tick, err := ParseTickSize(book.TickSize)
	if err != nil {
		return BuyMaxPlan{}, err
	}
	rc, err := ConfigForTick(tick)
	if err != nil {
		return BuyMaxPlan{}, err
	}

	_, bestAsk := BestBidAsk(book)

	var price decimal.Decimal
	switch {
	case limit.Valid:
		price = limit.Decimal
	case bestAsk != nil:
		price = bestAsk.Price
	default:
		return BuyMaxPlan{}, ErrNoAsks
	}

	price = price.RoundDown(rc.Price)
	if err := CheckPrice(price, tick); err != nil {
		return BuyMaxPlan{}, err
	}

	step := decimal.New(1, -rc.Size)
	size := capUSD.Div(price).RoundDown(rc.Size)
	// Div rounds at DivisionPrecision; step back if that pushed us over.
	for size.IsPositive() && size.Mul(price).GreaterThan(capUSD) {
		size = size.Sub(step)
	}

	// A minimum finer than the size precision would be cut below itself
	// when the order amounts are rounded.
	minSize := parseOrZero(book.MinOrderSize).RoundUp(rc.Size)
	if minSize.IsPositive() && size.LessThan(minSize) {
		minCost := minSize.Mul(price)
		if minCost.GreaterThan(capUSD) {
			return BuyMaxPlan{}, fmt.Errorf("max_usd too low for min order size: min_cost=$%s at price %s",
				minCost.StringFixed(4), price)
		}
		size = minSize
	}
	if !size.IsPositive() {
		return BuyMaxPlan{}, fmt.Errorf("max_usd $%s buys nothing at price %s", capUSD, price)
	}

	cost := size.Mul(price)
	marketable := bestAsk != nil && price.GreaterThanOrEqual(bestAsk.Price)
	if marketable && cost.LessThan(MinMarketableNotional) {
		return BuyMaxPlan{}, fmt.Errorf("marketable buy notional ($%s) below $%s minimum",
			cost.StringFixed(4), MinMarketableNotional)
	}

	return BuyMaxPlan{
		Price:      price,
		Size:       size,
		Cost:       cost,
		Cap:        capUSD,
		Marketable: marketable,
	}, nil
}
