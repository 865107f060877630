// Package bitmap provides a 1-bit 8x8 image format for LED dot-matrix panels.
//
// Each byte of a Frame is one row; bit 7 is the leftmost pixel.
package bitmap

import (
	"image"
	"image/color"
	"math/bits"
	"strings"
)

// Size is the edge length of a Frame in pixels.
const Size = 8

// Bit represents a single LED, either lit or unlit.
type Bit struct {
	On bool
}

var (
	// On is a lit LED.
	On = Bit{On: true}
	// Off is an unlit LED.
	Off = Bit{}
)

// RGBA converts the Bit to standard RGBA: lit is white, unlit is black.
func (c Bit) RGBA() (r, g, b, a uint32) {
	if c.On {
		return 0xFFFF, 0xFFFF, 0xFFFF, 0xFFFF
	}
	return 0, 0, 0, 0xFFFF
}

// toBit converts any color.Color to Bit.
func toBit(c color.Color) color.Color {
	if b, ok := c.(Bit); ok {
		return b
	}
	r, g, b, _ := c.RGBA()
	// Standard grayscale conversion: 0.299R + 0.587G + 0.114B
	y := (299*r + 587*g + 114*b + 500) / 1000
	return Bit{On: y >= 0x8000}
}

// BitModel converts colors to Bit, lighting any pixel at or above 50% luminance.
var BitModel = color.ModelFunc(toBit)

// Frame is an 8x8 monochrome bitmap. Frame[y] holds row y, and the pixel at
// column x is bit 0x80>>x.
type Frame [Size]byte

// ColorModel returns the color model of the frame.
func (f *Frame) ColorModel() color.Model {
	return BitModel
}

// Bounds returns the image bounds, always (0,0)-(8,8).
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, Size, Size)
}

// At returns the color of the pixel at (x, y).
// It implements the image.Image interface.
func (f *Frame) At(x, y int) color.Color {
	return f.BitAt(x, y)
}

// BitAt returns the Bit of the pixel at (x, y).
func (f *Frame) BitAt(x, y int) Bit {
	if !inside(x, y) {
		return Off
	}
	return Bit{On: f[y]&(0x80>>uint(x)) != 0}
}

// Set sets the color of the pixel at (x, y).
func (f *Frame) Set(x, y int, c color.Color) {
	f.SetBit(x, y, BitModel.Convert(c).(Bit))
}

// SetBit sets the Bit of the pixel at (x, y).
// This is faster than Set() as it doesn't require color conversion.
func (f *Frame) SetBit(x, y int, c Bit) {
	if !inside(x, y) {
		return
	}
	mask := byte(0x80) >> uint(x)
	if c.On {
		f[y] |= mask
	} else {
		f[y] &^= mask
	}
}

// Reverse returns the frame with the bit order of every row reversed,
// mirroring it horizontally.
func (f Frame) Reverse() Frame {
	for i := range f {
		f[i] = bits.Reverse8(f[i])
	}
	return f
}

// ShiftLeft moves every row n pixels towards bit 7. Pixels pushed past the
// edge are dropped; shifting by 8 or more yields a blank frame.
func (f Frame) ShiftLeft(n uint) Frame {
	for i := range f {
		f[i] <<= n
	}
	return f
}

// ShiftRight moves every row n pixels towards bit 0. Pixels pushed past the
// edge are dropped; shifting by 8 or more yields a blank frame.
func (f Frame) ShiftRight(n uint) Frame {
	for i := range f {
		f[i] >>= n
	}
	return f
}

// Or returns the row-by-row bitwise OR of f and o.
func (f Frame) Or(o Frame) Frame {
	for i := range f {
		f[i] |= o[i]
	}
	return f
}

// Rotate180 returns the frame turned upside down, for panels mounted inverted.
func (f Frame) Rotate180() Frame {
	var out Frame
	for i := range f {
		out[Size-1-i] = bits.Reverse8(f[i])
	}
	return out
}

// IsBlank reports whether no pixel is lit.
func (f Frame) IsBlank() bool {
	return f == Frame{}
}

// String renders the frame as eight lines of '#' and '.', handy in logs and
// test failures.
func (f Frame) String() string {
	var b strings.Builder
	b.Grow(Size * (Size + 1))
	for y, row := range f {
		for x := 0; x < Size; x++ {
			if row&(0x80>>uint(x)) != 0 {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		if y < Size-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func inside(x, y int) bool {
	return x >= 0 && x < Size && y >= 0 && y < Size
}
