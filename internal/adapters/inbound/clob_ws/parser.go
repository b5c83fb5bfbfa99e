package clob_ws

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/charleschow/polyclob/internal/core/trading"
	"github.com/charleschow/polyclob/internal/events"
	"github.com/charleschow/polyclob/internal/telemetry"
)

// wsMessage is the union of the market channel's event shapes.
type wsMessage struct {
	EventType string `json:"event_type"`
	AssetID   string `json:"asset_id"`
	Market    string `json:"market"`
	Timestamp string `json:"timestamp"`
	Hash      string `json:"hash"`

	// book; older servers send buys/sells
	Bids  []trading.PriceLevel `json:"bids"`
	Asks  []trading.PriceLevel `json:"asks"`
	Buys  []trading.PriceLevel `json:"buys"`
	Sells []trading.PriceLevel `json:"sells"`

	// price_change; older servers send changes for a single asset_id
	PriceChanges []events.PriceChange `json:"price_changes"`
	Changes      []events.PriceChange `json:"changes"`

	// last_trade_price
	Price      decimal.Decimal `json:"price"`
	Size       decimal.Decimal `json:"size"`
	Side       string          `json:"side"`
	FeeRateBps string          `json:"fee_rate_bps"`

	// tick_size_change
	OldTickSize string `json:"old_tick_size"`
	NewTickSize string `json:"new_tick_size"`
}

// ParseMessage converts a raw WebSocket frame into domain events. A frame
// holds one event object or an array of them.
func ParseMessage(data []byte) []events.Event {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("PONG")) {
		return nil
	}

	var msgs []wsMessage
	if data[0] == '[' {
		if err := json.Unmarshal(data, &msgs); err != nil {
			telemetry.Warnf("clob_ws: parse error: %v", err)
			return nil
		}
	} else {
		var m wsMessage
		if err := json.Unmarshal(data, &m); err != nil {
			telemetry.Warnf("clob_ws: parse error: %v", err)
			return nil
		}
		msgs = []wsMessage{m}
	}

	var out []events.Event
	for _, m := range msgs {
		out = append(out, parseEvent(m)...)
	}
	return out
}

func parseEvent(m wsMessage) []events.Event {
	ts := parseMillis(m.Timestamp)
	base := events.Event{
		ID:        m.AssetID,
		Type:      events.EventType(m.EventType),
		Market:    m.Market,
		Timestamp: ts,
	}

	switch base.Type {
	case events.EventBook:
		bids, asks := m.Bids, m.Asks
		if bids == nil && asks == nil {
			bids, asks = m.Buys, m.Sells
		}
		base.Payload = events.BookEvent{Bids: bids, Asks: asks, Hash: m.Hash}
		return []events.Event{base}

	case events.EventPriceChange:
		return splitPriceChanges(base, m)

	case events.EventLastTradePrice:
		base.Payload = events.LastTradeEvent{
			Price:      m.Price,
			Size:       m.Size,
			Side:       m.Side,
			FeeRateBps: m.FeeRateBps,
		}
		return []events.Event{base}

	case events.EventTickSizeChange:
		base.Payload = events.TickSizeEvent{OldTickSize: m.OldTickSize, NewTickSize: m.NewTickSize}
		return []events.Event{base}

	default:
		telemetry.Debugf("clob_ws: ignoring event_type=%q", m.EventType)
		return nil
	}
}

// splitPriceChanges emits one event per asset, in order of first
// appearance.
func splitPriceChanges(base events.Event, m wsMessage) []events.Event {
	if len(m.Changes) > 0 {
		changes := make([]events.PriceChange, len(m.Changes))
		for i, ch := range m.Changes {
			if ch.AssetID == "" {
				ch.AssetID = m.AssetID
			}
			changes[i] = ch
		}
		base.Payload = events.PriceChangeEvent{Changes: changes}
		return []events.Event{base}
	}

	var order []string
	byAsset := make(map[string][]events.PriceChange)
	for _, ch := range m.PriceChanges {
		if _, ok := byAsset[ch.AssetID]; !ok {
			order = append(order, ch.AssetID)
		}
		byAsset[ch.AssetID] = append(byAsset[ch.AssetID], ch)
	}

	out := make([]events.Event, 0, len(order))
	for _, id := range order {
		e := base
		e.ID = id
		e.Payload = events.PriceChangeEvent{Changes: byAsset[id]}
		out = append(out, e)
	}
	return out
}

func parseMillis(s string) time.Time {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil || ms <= 0 {
		return time.Now()
	}
	return time.UnixMilli(ms)
}
