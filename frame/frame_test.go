package frame

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrame_AtSet(t *testing.T) {
	f := New(4, 3)
	assert.Equal(t, 4, f.Width)
	assert.Equal(t, 3, f.Height)
	assert.Len(t, f.Pix, 12)

	f.Set(2, 1, 42)
	assert.Equal(t, uint16(42), f.At(2, 1))
	assert.Equal(t, uint16(42), f.Pix[1*4+2])
}

func TestFrame_Clone(t *testing.T) {
	f := New(2, 2)
	f.Set(0, 0, 7)

	c := f.Clone()
	c.Set(0, 0, 9)

	assert.Equal(t, uint16(7), f.At(0, 0))
	assert.Equal(t, uint16(9), c.At(0, 0))
}

func TestCorrect_Mapping(t *testing.T) {
	f := New(3, 2)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			f.Set(x, y, uint16(y*f.Width+x))
		}
	}

	out := Correct(f)
	require.Equal(t, 2, out.Width)
	require.Equal(t, 3, out.Height)

	// Anti-diagonal mirror: out(x, y) == in(W-1-y, H-1-x).
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			assert.Equal(t, f.At(f.Width-1-y, f.Height-1-x), out.At(x, y))
		}
	}
}

func TestCorrect_TwiceIsIdentity(t *testing.T) {
	f := New(5, 7)
	for i := range f.Pix {
		f.Pix[i] = uint16(i * 13)
	}

	twice := Correct(Correct(f))
	require.Equal(t, f.Width, twice.Width)
	require.Equal(t, f.Height, twice.Height)
	assert.Equal(t, f.Pix, twice.Pix)
}

func TestSynthetic_Deterministic(t *testing.T) {
	a := Synthetic(nil)
	b := Synthetic(nil)

	require.Equal(t, SynthSize, a.Width)
	require.Equal(t, SynthSize, a.Height)
	assert.Equal(t, a.Pix, b.Pix)

	// The pattern peaks at the center and falls off toward the edges.
	center := a.At(SynthSize/2, SynthSize/2)
	corner := a.At(0, 0)
	assert.Greater(t, center, corner)
}

func TestSynthetic_Noise(t *testing.T) {
	a := Synthetic(rand.New(rand.NewSource(1)))
	b := Synthetic(nil)

	assert.NotEqual(t, a.Pix, b.Pix)
}
