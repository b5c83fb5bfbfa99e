package telemetry

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

type Counter struct {
	val atomic.Int64
}

func (c *Counter) Inc()         { c.val.Add(1) }
func (c *Counter) Add(n int64)  { c.val.Add(n) }
func (c *Counter) Value() int64 { return c.val.Load() }

type LatencyTracker struct {
	mu      sync.Mutex
	samples []time.Duration
	maxKeep int
}

func NewLatencyTracker(maxKeep int) *LatencyTracker {
	return &LatencyTracker{maxKeep: maxKeep}
}

func (lt *LatencyTracker) Record(d time.Duration) {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	lt.samples = append(lt.samples, d)
	if len(lt.samples) > lt.maxKeep {
		lt.samples = lt.samples[len(lt.samples)-lt.maxKeep:]
	}
}

func (lt *LatencyTracker) Count() int {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	return len(lt.samples)
}

func (lt *LatencyTracker) P50() time.Duration { return lt.percentile(0.50) }
func (lt *LatencyTracker) P99() time.Duration { return lt.percentile(0.99) }

func (lt *LatencyTracker) percentile(p float64) time.Duration {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	if len(lt.samples) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(lt.samples))
	copy(sorted, lt.samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}

// Metrics is the per-process metrics registry. A CLI invocation only lives
// for a handful of requests, so these are summarised once on exit.
var Metrics = struct {
	HTTPRequests  Counter
	HTTPErrors    Counter
	OrdersSent    Counter
	OrderErrors   Counter
	RPCCalls      Counter
	WSMessages    Counter
	HTTPLatency   *LatencyTracker
	RateLimitWait *LatencyTracker
}{
	HTTPLatency:   NewLatencyTracker(256),
	RateLimitWait: NewLatencyTracker(256),
}

// LogSummary writes the counters at debug level.
func LogSummary() {
	Debugf("summary  http=%d  http_errors=%d  orders=%d  order_errors=%d  rpc=%d  ws=%d  p50=%s  p99=%s",
		Metrics.HTTPRequests.Value(),
		Metrics.HTTPErrors.Value(),
		Metrics.OrdersSent.Value(),
		Metrics.OrderErrors.Value(),
		Metrics.RPCCalls.Value(),
		Metrics.WSMessages.Value(),
		Metrics.HTTPLatency.P50(),
		Metrics.HTTPLatency.P99(),
	)
}
