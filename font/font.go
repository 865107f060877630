// Package font provides the 8x8 glyph tables used by the ticker.
//
// Glyph rows are stored with bit 0 as the leftmost pixel, the layout of the
// classic font8x8 tables. Consumers that address panels with bit 7 on the left
// must reverse each row before use.
package font

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/flavioheleno/ledticker/bitmap"
	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

// DefaultFallback is the character rendered in place of anything the table
// does not know.
const DefaultFallback = '?'

// Table maps a character to its 8x8 glyph.
type Table interface {
	// Lookup returns the glyph for c, or false if the table has none.
	Lookup(c byte) (bitmap.Frame, bool)
}

// Glyph returns the glyph for c, substituting the fallback character's glyph
// when c is missing. If the fallback is missing too the glyph is blank.
func Glyph(t Table, c, fallback byte) bitmap.Frame {
	if g, ok := t.Lookup(c); ok {
		return g
	}
	if g, ok := t.Lookup(fallback); ok {
		return g
	}
	return bitmap.Frame{}
}

// ByName returns one of the built-in tables: "basic", "picopixel" or "proggy".
func ByName(name string) (Table, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "basic":
		return Basic, nil
	case "picopixel":
		return FromTinyFont(&tinyfont.Picopixel, 6), nil
	case "proggy":
		return FromTinyFont(&proggy.TinySZ8pt7b, 7), nil
	default:
		return nil, fmt.Errorf("font: unknown table %q", name)
	}
}

// tinyTable holds a tinyfont face rasterized into 8x8 cells.
type tinyTable struct {
	glyphs [0x7F - basicFirst]bitmap.Frame
}

// FromTinyFont rasterizes the printable ASCII range of a tinyfont face into
// 8x8 cells. baseline is the row the glyph origin sits on; anything drawn
// outside the cell is clipped.
func FromTinyFont(f tinyfont.Fonter, baseline int16) Table {
	t := &tinyTable{}
	for i := range t.glyphs {
		c := &canvas{}
		tinyfont.DrawChar(c, f, 0, baseline, rune(basicFirst+i), ink)
		t.glyphs[i] = c.cell
	}
	return t
}

func (t *tinyTable) Lookup(c byte) (bitmap.Frame, bool) {
	if c < basicFirst || int(c) >= basicFirst+len(t.glyphs) {
		return bitmap.Frame{}, false
	}
	return t.glyphs[c-basicFirst], true
}

var ink = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}

// canvas is an 8x8 drivers.Displayer that records lit pixels with bit 0 as
// the leftmost column.
type canvas struct {
	cell bitmap.Frame
}

var _ drivers.Displayer = (*canvas)(nil)

func (c *canvas) Size() (x, y int16) {
	return bitmap.Size, bitmap.Size
}

func (c *canvas) SetPixel(x, y int16, col color.RGBA) {
	if x < 0 || x >= bitmap.Size || y < 0 || y >= bitmap.Size || col.A == 0 {
		return
	}
	c.cell[y] |= 1 << uint(x)
}

func (c *canvas) Display() error {
	return nil
}
