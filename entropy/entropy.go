// Package entropy computes Shannon entropy over byte streams.
package entropy

import "math"

// Shannon returns the entropy of text in bits per byte. Empty text has
// entropy 0.
func Shannon(text string) float64 {
	var c Counter
	_, _ = c.Write([]byte(text))
	return c.Entropy()
}

// Counter accumulates a byte histogram. It implements io.Writer so large
// text can be streamed into it instead of being concatenated in memory.
type Counter struct {
	hist  [256]uint64
	total uint64
}

// Write records every byte of p. It never fails.
func (c *Counter) Write(p []byte) (int, error) {
	for _, b := range p {
		c.hist[b]++
	}
	c.total += uint64(len(p))
	return len(p), nil
}

// WriteString is Write for strings without the copy.
func (c *Counter) WriteString(s string) (int, error) {
	for i := 0; i < len(s); i++ {
		c.hist[s[i]]++
	}
	c.total += uint64(len(s))
	return len(s), nil
}

// Len returns the number of bytes written so far.
func (c *Counter) Len() uint64 { return c.total }

// Entropy returns the Shannon entropy of everything written so far.
func (c *Counter) Entropy() float64 {
	if c.total == 0 {
		return 0
	}
	n := float64(c.total)
	var h float64
	for _, k := range c.hist {
		if k == 0 {
			continue
		}
		p := float64(k) / n
		h -= p * math.Log2(p)
	}
	return h
}

// Reset clears the histogram.
func (c *Counter) Reset() { *c = Counter{} }
