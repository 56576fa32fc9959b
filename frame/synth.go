package frame

import (
	"math"
	"math/rand"
)

// SynthSize is the edge length of synthesized placeholder frames.
const SynthSize = 512

// Synthetic builds a placeholder diffraction-like frame: a damped radial
// cosine over a [-10, 10] square grid. With a nil rng the frame is fully
// deterministic; otherwise per-pixel multiplicative noise from rng is applied,
// matching what an exposure of a real sample looks like on screen.
func Synthetic(rng *rand.Rand) *Frame {
	f := New(SynthSize, SynthSize)
	for y := 0; y < SynthSize; y++ {
		for x := 0; x < SynthSize; x++ {
			gx := -10 + 20*float64(x)/float64(SynthSize-1)
			gy := -10 + 20*float64(y)/float64(SynthSize-1)
			r := math.Hypot(gx, gy)
			v := math.Cos(r) / (r + 1)
			if rng != nil {
				v *= rng.NormFloat64()*0.4 + 1
			}
			f.Set(x, y, clampPixel(5e4*(v+0.3)))
		}
	}
	return f
}

func clampPixel(v float64) uint16 {
	switch {
	case v <= 0:
		return 0
	case v >= math.MaxUint16:
		return math.MaxUint16
	default:
		return uint16(v)
	}
}
