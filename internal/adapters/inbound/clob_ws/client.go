package clob_ws

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/charleschow/polyclob/internal/events"
	"github.com/charleschow/polyclob/internal/telemetry"
)

const (
	// The market channel drops clients that stay silent; a text PING every
	// 10s keeps the socket open.
	pingInterval = 10 * time.Second
	readWait     = 30 * time.Second
	writeWait    = 5 * time.Second
)

// Client connects to the CLOB market channel and publishes book, price
// and trade events onto the event bus.
//
// Gorilla/websocket supports one concurrent reader and one concurrent
// writer, so all writes are serialized through mu.
type Client struct {
	url  string
	bus  *events.Bus
	conn *websocket.Conn
	done chan struct{}

	mu     sync.Mutex
	assets map[string]bool
}

func NewClient(wsURL string, bus *events.Bus) *Client {
	return &Client{
		url:    wsURL,
		bus:    bus,
		done:   make(chan struct{}),
		assets: make(map[string]bool),
	}
}

func (c *Client) Connect(ctx context.Context) error {
	if err := c.dial(ctx); err != nil {
		return err
	}
	go c.runLoop(ctx)
	return nil
}

func (c *Client) dial(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	return nil
}

// SubscribeAssets adds token ids and subscribes on the live connection.
// If the connection is not yet established the ids are stored and
// subscribed on connect.
func (c *Client) SubscribeAssets(assetIDs []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var added []string
	for _, id := range assetIDs {
		if !c.assets[id] {
			c.assets[id] = true
			added = append(added, id)
		}
	}

	if len(added) == 0 || c.conn == nil {
		return nil
	}

	// The market channel replaces the subscription set on each message.
	return c.sendSubscribe(c.assetList())
}

// runLoop reads messages and reconnects on failure with exponential backoff.
func (c *Client) runLoop(ctx context.Context) {
	defer close(c.done)

	first := true
	for {
		if first {
			telemetry.Infof("clob_ws: connected to %s", c.url)
			first = false
		} else {
			telemetry.Infof("clob_ws: reconnected")
		}

		c.resubscribeAll()
		c.publishWSStatus(true)
		c.readLoop(ctx)
		c.publishWSStatus(false)

		select {
		case <-ctx.Done():
			return
		default:
		}

		backoff := 1 * time.Second
		const maxBackoff = 30 * time.Second
		for attempt := 1; ; attempt++ {
			telemetry.Warnf("clob_ws: reconnecting (attempt %d) in %s", attempt, backoff)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if err := c.dial(ctx); err != nil {
				telemetry.Warnf("clob_ws: dial failed: %v", err)
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
				continue
			}
			break
		}
	}
}

func (c *Client) resubscribeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.assets) == 0 {
		return
	}
	if err := c.sendSubscribe(c.assetList()); err != nil {
		telemetry.Warnf("clob_ws: resubscribe failed: %v", err)
	}
}

// assetList returns the known ids in a stable order. Caller must hold mu.
func (c *Client) assetList() []string {
	all := make([]string, 0, len(c.assets))
	for id := range c.assets {
		all = append(all, id)
	}
	sort.Strings(all)
	return all
}

// sendSubscribe writes a subscribe message. Caller must hold mu.
func (c *Client) sendSubscribe(assetIDs []string) error {
	telemetry.Debugf("clob_ws: subscribing to %d assets", len(assetIDs))
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(subscribeMsg{AssetsIDs: assetIDs, Type: "market"})
}

type subscribeMsg struct {
	AssetsIDs []string `json:"assets_ids"`
	Type      string   `json:"type"`
}

func (c *Client) readLoop(ctx context.Context) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go c.pingLoop(conn, stop)

	// Unblock ReadMessage when the caller cancels.
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	conn.SetReadDeadline(time.Now().Add(readWait))
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				telemetry.Warnf("clob_ws: read error: %v", err)
			}
			return
		}

		conn.SetReadDeadline(time.Now().Add(readWait))
		telemetry.Metrics.WSMessages.Inc()
		for _, evt := range ParseMessage(msg) {
			c.bus.Publish(evt)
		}
	}
}

func (c *Client) pingLoop(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := conn.WriteMessage(websocket.TextMessage, []byte("PING"))
			c.mu.Unlock()
			if err != nil {
				telemetry.Debugf("clob_ws: ping failed: %v", err)
				return
			}
		}
	}
}

func (c *Client) publishWSStatus(connected bool) {
	c.bus.Publish(events.Event{
		Type:      events.EventWSStatus,
		Timestamp: time.Now(),
		Payload:   events.WSStatusEvent{Connected: connected},
	})
}

func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (c *Client) Done() <-chan struct{} {
	return c.done
}
