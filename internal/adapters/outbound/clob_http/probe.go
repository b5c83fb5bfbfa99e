package clob_http

import (
	"context"
	"io"
	"net/http"
	"time"
)

// MeasureHTTP times one GET of url through hc, body included. A fresh
// client measures DNS, TCP and TLS setup as well; a reused one measures a
// keep-alive round trip.
func MeasureHTTP(ctx context.Context, hc *http.Client, url string) (ms float64, statusCode int, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, 0, err
	}
	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	elapsed := time.Since(start)
	return float64(elapsed.Microseconds()) / 1000, resp.StatusCode, nil
}
