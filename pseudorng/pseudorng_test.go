package pseudorng

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBits(t *testing.T) {
	buf, err := ReadBits(13)
	require.NoError(t, err)
	require.Len(t, buf, 2)
	assert.Zero(t, buf[1]&0x07, "trailing bits must be zero")

	_, err = ReadBits(0)
	assert.Error(t, err)
}

func TestGenerator_Reproducible(t *testing.T) {
	a, err := NewGenerator(42)
	require.NoError(t, err)
	b, err := NewGenerator(42)
	require.NoError(t, err)

	x, err := a.ReadBits(1000)
	require.NoError(t, err)
	y, err := b.ReadBits(1000)
	require.NoError(t, err)
	assert.Equal(t, x, y)
	assert.Len(t, x, 125)
	assert.Equal(t, uint64(42), a.Seed())
}

func TestGenerator_RandomSeed(t *testing.T) {
	g, err := NewGenerator(0)
	require.NoError(t, err)
	assert.NotZero(t, g.Seed())

	var nilGen *Generator
	_, err = nilGen.ReadBits(8)
	assert.Error(t, err)
}
