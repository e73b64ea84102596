// Package stats tallies coin flips and derives the summary ratios printed at
// the end of an RNG trial.
package stats

import (
	"fmt"
	"io"
)

// AlertThreshold is the running imbalance score above which a trial sounds
// an alert.
const AlertThreshold = 10.0

// Tally counts ones and zeros drawn during a single trial.
type Tally struct {
	Ones  uint64
	Zeros uint64
}

// Add records one flip.
func (t *Tally) Add(bit bool) {
	if bit {
		t.Ones++
	} else {
		t.Zeros++
	}
}

// Total returns the number of recorded flips.
func (t Tally) Total() uint64 { return t.Ones + t.Zeros }

// Difference returns |ones - zeros|.
func (t Tally) Difference() uint64 {
	if t.Ones > t.Zeros {
		return t.Ones - t.Zeros
	}
	return t.Zeros - t.Ones
}

// Score returns the running imbalance score of the tally.
func (t Tally) Score() float64 { return CaptureScore(t.Ones, t.Zeros) }

// CaptureScore computes |ones-zeros| / (ones+zeros) * 1000.
// An empty tally scores 0.
func CaptureScore(ones, zeros uint64) float64 {
	total := ones + zeros
	if total == 0 {
		return 0
	}
	t := Tally{Ones: ones, Zeros: zeros}
	return float64(t.Difference()) / float64(total) * 1000
}

// Summary holds the end-of-trial statistics of a tally.
type Summary struct {
	Total      uint64
	Ones       uint64
	Zeros      uint64
	Difference uint64
	// ReducedOnes:ReducedZeros is the ones-to-zeros ratio in lowest terms.
	ReducedOnes  float64
	ReducedZeros float64
	ExactRatio   float64
	RatioOnes    float64
	RatioZeros   float64
	// Variance is |RatioOnes-RatioZeros| as a percentage.
	Variance float64
	Score    float64
}

// Summarize derives the summary statistics of t.
func Summarize(t Tally) Summary {
	s := Summary{
		Total:      t.Total(),
		Ones:       t.Ones,
		Zeros:      t.Zeros,
		Difference: t.Difference(),
		Score:      t.Score(),
	}
	s.ReducedOnes, s.ReducedZeros = Reduce(t.Ones, t.Zeros)
	if t.Zeros != 0 {
		s.ExactRatio = float64(t.Ones) / float64(t.Zeros)
	}
	if s.Total != 0 {
		s.RatioOnes = float64(t.Ones) / float64(s.Total)
		s.RatioZeros = float64(t.Zeros) / float64(s.Total)
	}
	diff := s.RatioOnes - s.RatioZeros
	if diff < 0 {
		diff = -diff
	}
	s.Variance = diff * 100
	return s
}

// Reduce returns ones:zeros divided by their greatest common divisor.
// When either count is zero there is no ratio to reduce and both terms are 1.
func Reduce(ones, zeros uint64) (float64, float64) {
	if ones == 0 || zeros == 0 {
		return 1, 1
	}
	d := gcd(ones, zeros)
	return float64(ones / d), float64(zeros / d)
}

func gcd(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// WriteTo prints the summary lines, one statistic per line.
func (s Summary) WriteTo(w io.Writer) (int64, error) {
	var written int64
	lines := []string{
		fmt.Sprintf("%d total rounds", s.Total),
		fmt.Sprintf("%d count of ones", s.Ones),
		fmt.Sprintf("%d count of zeros", s.Zeros),
		fmt.Sprintf("%d difference", s.Difference),
		fmt.Sprintf("%.1f:%.1f ratio one to zero", s.ReducedOnes, s.ReducedZeros),
		fmt.Sprintf("%.6f exact ratio ones by zeros", s.ExactRatio),
		fmt.Sprintf("%.6f%% exact ratio ones by total", s.RatioOnes*100),
		fmt.Sprintf("%.6f%% exact ratio zeros by total", s.RatioZeros*100),
		fmt.Sprintf("%.6f%% variance", s.Variance),
		fmt.Sprintf("%.6f score", s.Score),
	}
	for _, l := range lines {
		n, err := fmt.Fprintln(w, l)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}
