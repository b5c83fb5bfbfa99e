package events

import "time"

// Event is the envelope that flows through the event bus.
// Every market-channel message (book snapshot, price change, trade) is wrapped in one.
type Event struct {
	ID        string    `json:"asset_id,omitempty"`
	Type      EventType `json:"event_type"`
	Market    string    `json:"market,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"data"`
}

type EventType string

const (
	// CLOB market channel events
	EventBook           EventType = "book"
	EventPriceChange    EventType = "price_change"
	EventLastTradePrice EventType = "last_trade_price"
	EventTickSizeChange EventType = "tick_size_change"
	// Connection state
	EventWSStatus EventType = "ws_status"
)

// MarketEventTypes lists every type the market channel can emit.
var MarketEventTypes = []EventType{
	EventBook,
	EventPriceChange,
	EventLastTradePrice,
	EventTickSizeChange,
}
