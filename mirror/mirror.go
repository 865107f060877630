// Package mirror scales 8x8 frames onto a larger periph display, such as an
// SSD1306 OLED, so the ticker output can be watched on a second screen.
package mirror

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/flavioheleno/ledticker/bitmap"
	"periph.io/x/conn/v3/display"
)

// Opts is the configuration for a Mirror.
type Opts struct {
	// Scale is the edge length of one LED in display pixels (default: the
	// largest that fits).
	Scale int

	// Invert draws lit LEDs dark on a lit background.
	Invert bool
}

// Mirror renders frames onto a display.Drawer. It implements ticker.Sink.
type Mirror struct {
	dev    display.Drawer
	scale  int
	origin image.Point // Top-left corner of the 8x8 grid, centered
	img    *image.Gray
	fg, bg image.Image
}

// New creates a Mirror drawing onto dev. opts can be nil to use defaults.
func New(dev display.Drawer, opts *Opts) (*Mirror, error) {
	if dev == nil {
		return nil, errors.New("mirror: display required")
	}
	if opts == nil {
		opts = &Opts{}
	}

	b := dev.Bounds()
	fit := min(b.Dx(), b.Dy()) / bitmap.Size
	if fit < 1 {
		return nil, fmt.Errorf("mirror: display %v is smaller than %dx%d", b, bitmap.Size, bitmap.Size)
	}
	scale := opts.Scale
	switch {
	case scale < 0:
		return nil, fmt.Errorf("mirror: invalid scale %d", scale)
	case scale == 0:
		scale = fit
	case scale > fit:
		return nil, fmt.Errorf("mirror: scale %d does not fit display %v", scale, b)
	}

	m := &Mirror{
		dev:   dev,
		scale: scale,
		origin: image.Pt(
			b.Min.X+(b.Dx()-scale*bitmap.Size)/2,
			b.Min.Y+(b.Dy()-scale*bitmap.Size)/2,
		),
		img: image.NewGray(b),
		fg:  image.NewUniform(color.White),
		bg:  image.NewUniform(color.Black),
	}
	if opts.Invert {
		m.fg, m.bg = m.bg, m.fg
	}
	return m, nil
}

// Scale returns the edge length of one LED in display pixels.
func (m *Mirror) Scale() int {
	return m.scale
}

// WriteFrame renders f and pushes the whole image to the display.
func (m *Mirror) WriteFrame(f bitmap.Frame) error {
	draw.Draw(m.img, m.img.Bounds(), m.bg, image.Point{}, draw.Src)
	for y := 0; y < bitmap.Size; y++ {
		for x := 0; x < bitmap.Size; x++ {
			if !f.BitAt(x, y).On {
				continue
			}
			r := image.Rect(0, 0, m.scale, m.scale).Add(m.origin).Add(image.Pt(x*m.scale, y*m.scale))
			draw.Draw(m.img, r, m.fg, image.Point{}, draw.Src)
		}
	}
	if err := m.dev.Draw(m.dev.Bounds(), m.img, m.img.Bounds().Min); err != nil {
		return fmt.Errorf("mirror: %w", err)
	}
	return nil
}

// Halt halts the underlying display.
func (m *Mirror) Halt() error {
	return m.dev.Halt()
}

func (m *Mirror) String() string {
	return fmt.Sprintf("mirror.Mirror{%s, scale %d}", m.dev, m.scale)
}
