// Package pseudorng provides software coin sources: crypto/rand directly, or a
// seedable generator for reproducible trials.
package pseudorng

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	mrand "math/rand/v2"
)

// Detect for pseudorng always returns true, since software RNG is always available.
func Detect() (bool, error) { return true, nil }

// ReadBits returns bitCount bits from crypto/rand, MSB-first per byte.
// The final byte may be partially filled with zeros in the unused trailing bits.
func ReadBits(bitCount int) ([]byte, error) {
	if bitCount <= 0 {
		return nil, errors.New("bitCount must be positive")
	}
	buf := make([]byte, (bitCount+7)/8)
	if _, err := crand.Read(buf); err != nil {
		return nil, err
	}
	maskTail(buf, bitCount)
	return buf, nil
}

// Generator is a deterministic PRNG for reproducible coin streams.
type Generator struct {
	r    *mrand.Rand
	seed uint64
}

// NewGenerator creates a new pseudorandom generator. If seed is zero, a random
// seed is drawn from crypto/rand.
func NewGenerator(seed uint64) (*Generator, error) {
	if seed == 0 {
		var s [8]byte
		if _, err := crand.Read(s[:]); err != nil {
			return nil, err
		}
		seed = binary.LittleEndian.Uint64(s[:])
	}
	return &Generator{r: mrand.New(mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), seed: seed}, nil
}

// Seed returns the seed the generator was built with.
func (g *Generator) Seed() uint64 { return g.seed }

// ReadBits reads bitCount bits from the generator.
func (g *Generator) ReadBits(bitCount int) ([]byte, error) {
	if g == nil || g.r == nil {
		return nil, errors.New("generator is nil")
	}
	if bitCount <= 0 {
		return nil, errors.New("bitCount must be positive")
	}
	buf := make([]byte, (bitCount+7)/8)
	var word [8]byte
	for i := 0; i < len(buf); i += 8 {
		binary.BigEndian.PutUint64(word[:], g.r.Uint64())
		copy(buf[i:], word[:])
	}
	maskTail(buf, bitCount)
	return buf, nil
}

// maskTail zeroes the unused trailing bits of the last byte.
func maskTail(buf []byte, bitCount int) {
	extraBits := (8 - (bitCount % 8)) % 8
	if extraBits != 0 && len(buf) > 0 {
		buf[len(buf)-1] &= byte(0xFF << extraBits)
	}
}
