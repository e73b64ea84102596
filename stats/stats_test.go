package stats

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize_SevenThree(t *testing.T) {
	s := Summarize(Tally{Ones: 7, Zeros: 3})

	assert.Equal(t, uint64(10), s.Total)
	assert.Equal(t, uint64(4), s.Difference)
	assert.InDelta(t, 0.7, s.RatioOnes, 1e-9)
	assert.InDelta(t, 0.3, s.RatioZeros, 1e-9)
	assert.InDelta(t, 40.0, s.Variance, 1e-9)
	assert.InDelta(t, 400.0, s.Score, 1e-9)
	assert.InDelta(t, 7.0/3.0, s.ExactRatio, 1e-9)
	assert.Equal(t, 7.0, s.ReducedOnes)
	assert.Equal(t, 3.0, s.ReducedZeros)
}

func TestSummarize_RatiosSumToOne(t *testing.T) {
	cases := []Tally{
		{Ones: 1, Zeros: 0},
		{Ones: 0, Zeros: 5},
		{Ones: 13, Zeros: 29},
		{Ones: 500000, Zeros: 499999},
		{Ones: 1 << 40, Zeros: 3},
	}
	for _, tc := range cases {
		s := Summarize(tc)
		assert.InDelta(t, 1.0, s.RatioOnes+s.RatioZeros, 1e-9, "tally %+v", tc)
	}
}

func TestSummarize_ZeroCounts(t *testing.T) {
	t.Run("no zeros", func(t *testing.T) {
		s := Summarize(Tally{Ones: 4})
		assert.Equal(t, 1.0, s.ReducedOnes)
		assert.Equal(t, 1.0, s.ReducedZeros)
		assert.Equal(t, 0.0, s.ExactRatio)
		assert.InDelta(t, 1000.0, s.Score, 1e-9)
	})
	t.Run("no ones", func(t *testing.T) {
		s := Summarize(Tally{Zeros: 4})
		assert.Equal(t, 1.0, s.ReducedOnes)
		assert.Equal(t, 1.0, s.ReducedZeros)
		assert.Equal(t, 0.0, s.ExactRatio)
	})
	t.Run("empty", func(t *testing.T) {
		s := Summarize(Tally{})
		assert.Equal(t, 0.0, s.Score)
		assert.Equal(t, 0.0, s.RatioOnes)
		assert.False(t, math.IsNaN(s.Variance))
	})
}

func TestReduce(t *testing.T) {
	o, z := Reduce(6, 4)
	assert.Equal(t, 3.0, o)
	assert.Equal(t, 2.0, z)

	o, z = Reduce(9, 9)
	assert.Equal(t, 1.0, o)
	assert.Equal(t, 1.0, z)
}

func TestCaptureScore_LinearInDifference(t *testing.T) {
	// Fixed total of 100 flips.
	base := CaptureScore(51, 49)
	for d := uint64(0); d <= 50; d++ {
		ones := 50 + d
		zeros := 100 - ones
		got := CaptureScore(ones, zeros)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.InDelta(t, float64(2*d)*base/2, got, 1e-9)
	}
}

func TestTally_Add(t *testing.T) {
	var tally Tally
	for _, b := range []bool{true, false, true, true} {
		tally.Add(b)
	}
	assert.Equal(t, uint64(3), tally.Ones)
	assert.Equal(t, uint64(1), tally.Zeros)
	assert.InDelta(t, 500.0, tally.Score(), 1e-9)
}

func TestSummary_WriteTo(t *testing.T) {
	var buf bytes.Buffer
	n, err := Summarize(Tally{Ones: 7, Zeros: 3}).WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 10)
	assert.Equal(t, "10 total rounds", lines[0])
	assert.Equal(t, "7.0:3.0 ratio one to zero", lines[4])
	assert.Equal(t, "70.000000% exact ratio ones by total", lines[6])
	assert.Equal(t, "40.000000% variance", lines[8])
	assert.Equal(t, "400.000000 score", lines[9])
}
