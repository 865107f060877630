// Package sim renders the LED matrix on the host so the ticker can be
// watched without hardware, either in a desktop window or headless.
package sim

import (
	"image"
	"image/color"
	"sync"

	"github.com/flavioheleno/ledticker/bitmap"
)

// Geometry of the rendered panel, in screen pixels.
const (
	Cell   = 24 // Pitch between LED centers
	Margin = 12
	Width  = bitmap.Size*Cell + 2*Margin
	Height = Width
)

var (
	// Lit is the color of a lit LED.
	Lit = color.RGBA{R: 0xFF, G: 0x30, B: 0x18, A: 0xFF}
	// Unlit is the color of a dark LED, slightly visible like a real panel.
	Unlit = color.RGBA{R: 0x3A, G: 0x0C, B: 0x08, A: 0xFF}
	// Background is the PCB color around the LEDs.
	Background = color.RGBA{R: 0x10, G: 0x10, B: 0x10, A: 0xFF}
)

// Panel is a simulated 8x8 matrix. It implements ticker.Sink and is safe
// for concurrent use, since the window draws on its own goroutine.
type Panel struct {
	mu     sync.Mutex
	frame  bitmap.Frame
	writes uint64
}

// NewPanel returns a blank Panel.
func NewPanel() *Panel {
	return &Panel{}
}

// WriteFrame implements ticker.Sink.
func (p *Panel) WriteFrame(f bitmap.Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frame = f
	p.writes++
	return nil
}

// Frame returns the frame currently shown.
func (p *Panel) Frame() bitmap.Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frame
}

// Writes returns how many frames were written.
func (p *Panel) Writes() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writes
}

// Render draws the current frame as round LEDs into img, which must be at
// least Width x Height.
func (p *Panel) Render(img *image.RGBA) {
	f := p.Frame()
	r := Cell * 2 / 5 // LED radius
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			img.SetRGBA(x, y, ledColor(&f, x, y, r))
		}
	}
}

// ledColor returns the color of screen pixel (x, y).
func ledColor(f *bitmap.Frame, x, y, r int) color.RGBA {
	cx, cy := (x-Margin)/Cell, (y-Margin)/Cell
	if x < Margin || y < Margin || cx >= bitmap.Size || cy >= bitmap.Size {
		return Background
	}
	dx := x - (Margin + cx*Cell + Cell/2)
	dy := y - (Margin + cy*Cell + Cell/2)
	if dx*dx+dy*dy > r*r {
		return Background
	}
	if f.BitAt(cx, cy).On {
		return Lit
	}
	return Unlit
}
