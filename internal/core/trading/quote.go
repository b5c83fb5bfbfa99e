package trading

import (
	"github.com/shopspring/decimal"
)

// BestBidAsk returns the highest bid and lowest ask, or nil for an empty
// side. The API does not guarantee level ordering, so both sides are
// scanned.
func BestBidAsk(book *OrderBook) (bid, ask *PriceLevel) {
	for i := range book.Bids {
		if bid == nil || book.Bids[i].Price.GreaterThan(bid.Price) {
			bid = &book.Bids[i]
		}
	}
	for i := range book.Asks {
		if ask == nil || book.Asks[i].Price.LessThan(ask.Price) {
			ask = &book.Asks[i]
		}
	}
	return bid, ask
}

// Quote is the top-of-book summary printed by the quote command.
type Quote struct {
	TokenID        string           `json:"token_id"`
	BestBid        *PriceLevel      `json:"best_bid"`
	BestAsk        *PriceLevel      `json:"best_ask"`
	Mid            *decimal.Decimal `json:"mid,omitempty"`
	Spread         *decimal.Decimal `json:"spread,omitempty"`
	MinOrderSize   decimal.Decimal  `json:"min_order_size"`
	TickSize       string           `json:"tick_size"`
	LastTradePrice string           `json:"last_trade_price"`
	NegRisk        bool             `json:"neg_risk"`
}

func NewQuote(tokenID string, book *OrderBook) Quote {
	bid, ask := BestBidAsk(book)
	q := Quote{
		TokenID:        tokenID,
		BestBid:        bid,
		BestAsk:        ask,
		MinOrderSize:   parseOrZero(book.MinOrderSize),
		TickSize:       book.TickSize,
		LastTradePrice: book.LastTradePrice,
		NegRisk:        book.NegRisk,
	}
	if bid != nil && ask != nil {
		mid := bid.Price.Add(ask.Price).Div(decimal.NewFromInt(2))
		spread := ask.Price.Sub(bid.Price)
		q.Mid = &mid
		q.Spread = &spread
	}
	return q
}
