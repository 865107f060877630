//go:build cgo

package sim

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// TPS is the update rate of the window loop.
const TPS = 60

// RunWindow opens a desktop window showing p and calls step once per
// update. It blocks until the window closes or step fails.
func RunWindow(p *Panel, title string, step func() error) error {
	g := &game{panel: p, step: step}
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(Width*2, Height*2)
	ebiten.SetTPS(TPS)
	return ebiten.RunGame(g)
}

type game struct {
	panel *Panel
	step  func() error
	img   *image.RGBA
	frame *ebiten.Image
}

func (g *game) Update() error {
	if g.step != nil {
		if err := g.step(); err != nil {
			return err
		}
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	if g.img == nil {
		g.img = image.NewRGBA(image.Rect(0, 0, Width, Height))
		g.frame = ebiten.NewImage(Width, Height)
	}
	g.panel.Render(g.img)
	g.frame.WritePixels(g.img.Pix)
	screen.DrawImage(g.frame, nil)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return Width, Height
}
