// Package latency summarises round-trip samples for the ping command.
package latency

import (
	"math"
	"sort"
)

// Stats are in milliseconds.
type Stats struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min_ms"`
	Max    float64 `json:"max_ms"`
	Mean   float64 `json:"mean_ms"`
	Median float64 `json:"median_ms"`
	Stdev  float64 `json:"stdev_ms"`
	P95    float64 `json:"p95_ms"`
	P99    float64 `json:"p99_ms"`
}

// Summarize needs at least two samples; ok is false otherwise.
func Summarize(samples []float64) (s Stats, ok bool) {
	if len(samples) < 2 {
		return Stats{}, false
	}
	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	mean := 0.0
	for _, v := range samples {
		mean += v
	}
	mean /= float64(len(samples))

	variance := 0.0
	for _, v := range samples {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(samples) - 1)

	return Stats{
		Count:  len(samples),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Mean:   mean,
		Median: sorted[len(sorted)/2],
		Stdev:  math.Sqrt(variance),
		P95:    sorted[percentileIndex(len(sorted), 0.95)],
		P99:    sorted[percentileIndex(len(sorted), 0.99)],
	}, true
}

func percentileIndex(n int, p float64) int {
	idx := int(float64(n) * p)
	if idx >= n {
		idx = n - 1
	}
	return idx
}
