package events

import (
	"github.com/shopspring/decimal"

	"github.com/charleschow/polyclob/internal/core/trading"
)

// BookEvent is a full order book snapshot, sent on subscribe and after
// every trade.
type BookEvent struct {
	Bids []trading.PriceLevel `json:"bids"`
	Asks []trading.PriceLevel `json:"asks"`
	Hash string               `json:"hash,omitempty"`
}

// PriceChange is one level update. Size zero removes the level.
type PriceChange struct {
	AssetID string          `json:"asset_id"`
	Price   decimal.Decimal `json:"price"`
	Size    decimal.Decimal `json:"size"`
	Side    string          `json:"side"`
	BestBid string          `json:"best_bid,omitempty"`
	BestAsk string          `json:"best_ask,omitempty"`
}

// PriceChangeEvent carries the level updates from one order placement or
// cancellation.
type PriceChangeEvent struct {
	Changes []PriceChange `json:"changes"`
}

// LastTradeEvent is published when a maker and taker order match.
type LastTradeEvent struct {
	Price      decimal.Decimal `json:"price"`
	Size       decimal.Decimal `json:"size"`
	Side       string          `json:"side"`
	FeeRateBps string          `json:"fee_rate_bps,omitempty"`
}

// TickSizeEvent is published when a market's minimum tick changes as the
// price nears 0 or 1.
type TickSizeEvent struct {
	OldTickSize string `json:"old_tick_size"`
	NewTickSize string `json:"new_tick_size"`
}

// WSStatusEvent signals market websocket connect/disconnect.
type WSStatusEvent struct {
	Connected bool `json:"connected"`
}
