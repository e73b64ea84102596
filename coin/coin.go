// Package coin turns a batch bit source into a stream of single coin flips.
package coin

import (
	"errors"
	"fmt"
)

// DefaultBatchBits is the number of bits requested from a source per refill.
const DefaultBatchBits = 2048

// ErrShortRead is returned when a source delivers no usable bits.
var ErrShortRead = errors.New("coin: source returned no bits")

// Device names a coin source backend.
// Allowed values are: "pseudo" (PRNG), "trng" (TrueRNG3) and "bitb" (BitBabbler).
type Device string

const (
	DevicePseudo     Device = "pseudo"
	DeviceTrueRNG    Device = "trng"
	DeviceBitBabbler Device = "bitb"
)

// Validate checks whether d is one of the allowed device identifiers.
func (d Device) Validate() error {
	if d == DevicePseudo || d == DeviceTrueRNG || d == DeviceBitBabbler {
		return nil
	}
	return fmt.Errorf("invalid device: %q (allowed: pseudo, trng, bitb)", string(d))
}

// Source delivers bitCount random bits packed MSB-first. The last byte may be
// partially filled.
type Source interface {
	ReadBits(bitCount int) ([]byte, error)
}

// SourceFunc adapts a plain function to Source.
type SourceFunc func(bitCount int) ([]byte, error)

// ReadBits calls f.
func (f SourceFunc) ReadBits(bitCount int) ([]byte, error) { return f(bitCount) }

// Coin hands out one bit per Flip, refilling from its source in batches.
type Coin struct {
	src       Source
	batchBits int

	buf  []byte
	bits int // bits left in buf
	pos  int // next bit index into buf
}

// New returns a Coin drawing batchBits bits at a time from src. A
// non-positive batchBits selects DefaultBatchBits.
func New(src Source, batchBits int) *Coin {
	if batchBits <= 0 {
		batchBits = DefaultBatchBits
	}
	return &Coin{src: src, batchBits: batchBits}
}

// Flip returns the next bit as true (one) or false (zero).
func (c *Coin) Flip() (bool, error) {
	if c.bits == 0 {
		if err := c.refill(); err != nil {
			return false, err
		}
	}
	b := c.buf[c.pos/8]
	bit := b&(0x80>>(c.pos%8)) != 0
	c.pos++
	c.bits--
	return bit, nil
}

func (c *Coin) refill() error {
	buf, err := c.src.ReadBits(c.batchBits)
	if err != nil {
		return fmt.Errorf("read bits: %w", err)
	}
	avail := len(buf) * 8
	if avail > c.batchBits {
		avail = c.batchBits
	}
	if avail == 0 {
		return ErrShortRead
	}
	c.buf, c.bits, c.pos = buf, avail, 0
	return nil
}
