package sim

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/flavioheleno/ledticker/bitmap"
)

func TestPanelWriteFrame(t *testing.T) {
	p := NewPanel()
	f := bitmap.Frame{0x18, 0x3C}
	if err := p.WriteFrame(f); err != nil {
		t.Fatal(err)
	}
	if p.Frame() != f {
		t.Errorf("Frame() = %v, want %v", p.Frame(), f)
	}
	if p.Writes() != 1 {
		t.Errorf("Writes() = %d, want 1", p.Writes())
	}
}

func TestRender(t *testing.T) {
	p := NewPanel()
	// Only the top-left LED is lit.
	if err := p.WriteFrame(bitmap.Frame{0x80}); err != nil {
		t.Fatal(err)
	}
	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	p.Render(img)

	center := func(x, y int) (int, int) {
		return Margin + x*Cell + Cell/2, Margin + y*Cell + Cell/2
	}

	tests := []struct {
		name string
		x, y int
		want any
	}{
		{"corner", 0, 0, Background},
		{"margin", Margin - 1, Margin + Cell/2, Background},
	}
	for _, tt := range tests {
		if got := img.RGBAAt(tt.x, tt.y); got != tt.want {
			t.Errorf("%s: pixel (%d,%d) = %v, want %v", tt.name, tt.x, tt.y, got, tt.want)
		}
	}

	x, y := center(0, 0)
	if got := img.RGBAAt(x, y); got != Lit {
		t.Errorf("lit LED center = %v, want %v", got, Lit)
	}
	x, y = center(1, 0)
	if got := img.RGBAAt(x, y); got != Unlit {
		t.Errorf("dark LED center = %v, want %v", got, Unlit)
	}
	x, y = center(7, 7)
	if got := img.RGBAAt(x, y); got != Unlit {
		t.Errorf("bottom-right LED center = %v, want %v", got, Unlit)
	}
	// Gap between two LEDs.
	if got := img.RGBAAt(Margin+Cell, Margin+Cell); got != Background {
		t.Errorf("gap between LEDs = %v, want %v", got, Background)
	}
}

func TestEvery(t *testing.T) {
	tests := []struct {
		name     string
		tps      int
		interval time.Duration
		steps    int
		want     int
	}{
		{"70ms at 60 tps", 60, 70 * time.Millisecond, 60, 14}, // 1s / 70ms
		{"faster than a step", 10, 25 * time.Millisecond, 10, 40},
		{"equal to a step", 50, 20 * time.Millisecond, 50, 50},
		{"non-positive interval", 30, 0, 7, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := 0
			step := Every(tt.tps, tt.interval, func() error {
				n++
				return nil
			})
			for i := 0; i < tt.steps; i++ {
				if err := step(); err != nil {
					t.Fatal(err)
				}
			}
			if n != tt.want {
				t.Errorf("fn ran %d times, want %d", n, tt.want)
			}
		})
	}
}

func TestEveryStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	step := Every(10, 10*time.Millisecond, func() error { return boom })
	if err := step(); !errors.Is(err, boom) {
		t.Errorf("step() error = %v, want %v", err, boom)
	}
}

func TestRunHeadless(t *testing.T) {
	n := 0
	err := RunHeadless(context.Background(), func() error {
		n++
		return nil
	}, HeadlessConfig{Hz: 1000, Ticks: 5})
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Errorf("step ran %d times, want 5", n)
	}
}

func TestRunHeadlessCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := RunHeadless(ctx, nil, HeadlessConfig{}); !errors.Is(err, context.Canceled) {
		t.Errorf("RunHeadless() error = %v, want %v", err, context.Canceled)
	}
}
