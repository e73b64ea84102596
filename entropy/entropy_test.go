package entropy

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShannon(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want float64
	}{
		{"empty", "", 0},
		{"single symbol", "aaaaaaaa", 0},
		{"two symbols", "abababab", 1},
		{"four symbols", "abcdabcd", 2},
		{"skewed", "aaab", 0.8112781244591328},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, Shannon(tc.in), 1e-12)
		})
	}
}

func TestCounter_StreamMatchesShannon(t *testing.T) {
	text := strings.Repeat("Frame { width: 2, height: 1, data: [0, 255, 17] }", 50)

	var c Counter
	_, err := io.Copy(&c, strings.NewReader(text))
	assert.NoError(t, err)

	assert.Equal(t, uint64(len(text)), c.Len())
	assert.InDelta(t, Shannon(text), c.Entropy(), 1e-12)

	c.Reset()
	assert.Equal(t, uint64(0), c.Len())
	assert.Equal(t, 0.0, c.Entropy())
}

func TestCounter_WriteString(t *testing.T) {
	var a, b Counter
	_, _ = a.WriteString("hello world")
	_, _ = b.Write([]byte("hello world"))
	assert.Equal(t, a.Entropy(), b.Entropy())
}
