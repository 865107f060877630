// Package bitmap provides a 1-bit 8x8 image format for single LED dot-matrix panels.
//
// A MAX7219 driven matrix has one register per row, and each register holds
// eight pixels. A Frame mirrors that layout directly: byte y is row y and the
// most significant bit is the leftmost pixel.
//
// Memory layout example for one row:
//
//	Pixels: 0 1 2 3 4 5 6 7
//	Values: 1 1 0 0 0 0 0 1
//	Byte:   0xC1
//
// This package provides:
//
// - Bit: A color type representing one lit or unlit LED
// - BitModel: A color model for converting standard Go colors to Bit
// - Frame: An image.Image and draw.Image implementation, plus the row shifting
// operations used to composite scrolling glyphs
//
// Example usage:
//
//	var f bitmap.Frame
//	f.SetBit(0, 3, bitmap.On)
//	println(f.BitAt(0, 3).On) // Output: true
//
//	// Use with standard Go image operations
//	draw.Draw(&f, f.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
package bitmap
