// Package frame defines the pixel frame value type produced by the detector,
// the fixed read-out orientation correction, and synthetic placeholder frames
// for hardware-free operation.
package frame

import "time"

// Frame is a single detector image. Pixels are stored row-major; At and Set
// address them by column (x) and row (y).
type Frame struct {
	Width      int
	Height     int
	Pix        []uint16
	CapturedAt time.Time
}

// New allocates a zeroed frame of the given dimensions.
func New(width, height int) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Pix:    make([]uint16, width*height),
	}
}

// At returns the pixel at column x, row y.
func (f *Frame) At(x, y int) uint16 {
	return f.Pix[y*f.Width+x]
}

// Set stores v at column x, row y.
func (f *Frame) Set(x, y int, v uint16) {
	f.Pix[y*f.Width+x] = v
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	c := New(f.Width, f.Height)
	copy(c.Pix, f.Pix)
	c.CapturedAt = f.CapturedAt
	return c
}

// Correct returns a new frame with the fixed sensor read-out correction
// applied: a 90° counter-clockwise rotation followed by a horizontal flip.
// The composition mirrors the image across its anti-diagonal, so applying
// Correct twice yields the original frame.
//
// Every frame that is saved or displayed must pass through Correct exactly
// once, or it will be spatially incorrect.
func Correct(f *Frame) *Frame {
	out := New(f.Height, f.Width)
	out.CapturedAt = f.CapturedAt
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			out.Set(x, y, f.At(f.Width-1-y, f.Height-1-x))
		}
	}
	return out
}
