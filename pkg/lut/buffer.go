// Package lut provides the owned float buffer used for baked scattering
// tables, its binary file format and table storage.
package lut

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Buffer is a contiguous row-major float32 image with explicit dimensions.
// Sample (x, y, z) channel c lives at ((z*Height+y)*Width+x)*Channels+c.
type Buffer struct {
	Width    int
	Height   int
	Depth    int
	Channels int
	Data     []float32
}

// NewBuffer allocates a zeroed buffer.
func NewBuffer(width, height, depth, channels int) *Buffer {
	return &Buffer{
		Width:    width,
		Height:   height,
		Depth:    depth,
		Channels: channels,
		Data:     make([]float32, width*height*depth*channels),
	}
}

// Dims describes buffer dimensions.
type Dims struct {
	Width, Height, Depth, Channels int
}

// String returns "WxHxD/C".
func (d Dims) String() string {
	return fmt.Sprintf("%dx%dx%d/%d", d.Width, d.Height, d.Depth, d.Channels)
}

// Len returns the number of float32 values.
func (d Dims) Len() int {
	return d.Width * d.Height * d.Depth * d.Channels
}

// Dims returns the buffer dimensions.
func (b *Buffer) Dims() Dims {
	return Dims{b.Width, b.Height, b.Depth, b.Channels}
}

// Index returns the offset of the first channel of texel (x, y, z).
func (b *Buffer) Index(x, y, z int) int {
	return ((z*b.Height+y)*b.Width + x) * b.Channels
}

// Texel returns a slice aliasing the channels of texel (x, y, z).
func (b *Buffer) Texel(x, y, z int) []float32 {
	i := b.Index(x, y, z)
	return b.Data[i : i+b.Channels]
}

// Set stores up to Channels values at texel (x, y, z).
func (b *Buffer) Set(x, y, z int, v ...float32) {
	copy(b.Texel(x, y, z), v)
}

// Bilinear samples a 2D slice at z with continuous texel coordinates,
// clamped to the edges. out must hold at least Channels values.
func (b *Buffer) Bilinear(fx, fy float64, z int, out []float64) {
	fx = math.Max(0, math.Min(float64(b.Width-1), fx))
	fy = math.Max(0, math.Min(float64(b.Height-1), fy))

	x0, y0 := int(fx), int(fy)
	x1, y1 := min(x0+1, b.Width-1), min(y0+1, b.Height-1)
	tx, ty := fx-float64(x0), fy-float64(y0)

	t00 := b.Texel(x0, y0, z)
	t10 := b.Texel(x1, y0, z)
	t01 := b.Texel(x0, y1, z)
	t11 := b.Texel(x1, y1, z)
	for c := 0; c < b.Channels; c++ {
		top := float64(t00[c])*(1-tx) + float64(t10[c])*tx
		bottom := float64(t01[c])*(1-tx) + float64(t11[c])*tx
		out[c] = top*(1-ty) + bottom*ty
	}
}

// Channel copies channel c of every texel into a float64 slice.
func (b *Buffer) Channel(c int) []float64 {
	n := len(b.Data) / b.Channels
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = float64(b.Data[i*b.Channels+c])
	}
	return out
}

// Stats summarizes one channel.
type Stats struct {
	Min, Max, Mean float64
}

// ChannelStats returns min, max and mean of channel c.
func (b *Buffer) ChannelStats(c int) Stats {
	values := b.Channel(c)
	if len(values) == 0 {
		return Stats{}
	}
	return Stats{
		Min:  floats.Min(values),
		Max:  floats.Max(values),
		Mean: floats.Sum(values) / float64(len(values)),
	}
}
