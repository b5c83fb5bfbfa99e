package latency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	s, ok := Summarize([]float64{4, 1, 3, 2, 5})
	require.True(t, ok)

	assert.Equal(t, 5, s.Count)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 5.0, s.Max)
	assert.Equal(t, 3.0, s.Mean)
	assert.Equal(t, 3.0, s.Median)
	assert.InDelta(t, 1.5811, s.Stdev, 1e-4)
	assert.Equal(t, 5.0, s.P95)
	assert.Equal(t, 5.0, s.P99)
}

func TestSummarize_TooFewSamples(t *testing.T) {
	_, ok := Summarize(nil)
	assert.False(t, ok)
	_, ok = Summarize([]float64{12})
	assert.False(t, ok)
}
