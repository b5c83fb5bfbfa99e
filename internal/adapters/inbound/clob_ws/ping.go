package clob_ws

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/websocket"
)

// MeasurePing dials wsURL and times n websocket ping/pong control frames.
// Samples gathered before a failure are returned with the error.
func MeasurePing(ctx context.Context, wsURL string, n int) ([]float64, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	pongCh := make(chan struct{}, 1)
	conn.SetPongHandler(func(string) error {
		select {
		case pongCh <- struct{}{}:
		default:
		}
		return nil
	})

	// Control frames are only processed while reading.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	latencies := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		start := time.Now()
		if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeWait)); err != nil {
			return latencies, err
		}
		select {
		case <-pongCh:
			latencies = append(latencies, float64(time.Since(start).Microseconds())/1000)
		case <-time.After(writeWait):
			return latencies, errors.New("pong timeout")
		case <-ctx.Done():
			return latencies, ctx.Err()
		}
	}
	return latencies, nil
}
