// Package max7219 controls a single 8x8 LED matrix driven by a MAX7219 via SPI.
//
// See the examples for how to use this package.
package max7219

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/flavioheleno/ledticker/bitmap"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Register addresses.
const (
	regDigit0      = 0x01 // Row 0; rows 1-7 follow sequentially
	regDecodeMode  = 0x09
	regIntensity   = 0x0A
	regScanLimit   = 0x0B
	regShutdown    = 0x0C
	regDisplayTest = 0x0F
)

var errHalted = errors.New("max7219: halted")

// Opts is the configuration for the MAX7219 matrix.
type Opts struct {
	// Intensity on a 0-255 scale (default: 0, the dimmest lit level). The
	// chip has 16 steps so the low nibble is ignored.
	Intensity byte

	// Rotated turns every frame 180° for panels mounted upside down.
	Rotated bool
}

// Dev is the device handle for the MAX7219 matrix.
type Dev struct {
	// Communication
	c conn.Conn // SPI connection

	// Display geometry
	rect    image.Rectangle
	rotated bool

	// Pixel buffers
	frame  bitmap.Frame // Last frame written, as the caller drew it
	buffer bitmap.Frame // Row registers as currently latched in the chip

	// State
	on         bool
	intensity  byte
	brightness int // Percent, as last set by SetBrightness
	halted     bool
}

var _ display.Drawer = (*Dev)(nil)

// NewSPI creates a new MAX7219 device connected via SPI.
//
// The SPI port is configured for 10MHz, Mode0 (CPOL=0, CPHA=0), 8-bit
// transfers. Chip select must latch each 16-bit register write.
//
// The matrix is cleared and left powered off; the first WriteFrame turns it
// on. opts can be nil to use defaults.
func NewSPI(p spi.Port, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{}
	}

	// MAX7219 latches on the rising CS edge and accepts up to 10MHz
	c, err := p.Connect(10*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("max7219: %w", err)
	}

	d := &Dev{
		c:         c,
		rect:      image.Rect(0, 0, bitmap.Size, bitmap.Size),
		rotated:   opts.Rotated,
		intensity: opts.Intensity,
	}

	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

// init sends the initialization sequence to the chip.
func (d *Dev) init() error {
	cmds := [][2]byte{
		{regScanLimit, 0x07},             // Scan all 8 rows
		{regDecodeMode, 0x00},            // Raw segments, no BCD decode
		{regDisplayTest, 0x00},           // Normal operation
		{regIntensity, d.intensity >> 4}, // 16 steps
	}
	for _, cmd := range cmds {
		if err := d.writeReg(cmd[0], cmd[1]); err != nil {
			return err
		}
	}

	// Clear row RAM
	if err := d.clearRAM(); err != nil {
		return err
	}

	// Start powered off, in a known state
	return d.writeReg(regShutdown, 0x00)
}

// clearRAM zeroes all row registers.
func (d *Dev) clearRAM() error {
	for y := 0; y < bitmap.Size; y++ {
		if err := d.writeReg(regDigit0+byte(y), 0x00); err != nil {
			return err
		}
	}
	d.buffer = bitmap.Frame{}
	d.frame = bitmap.Frame{}
	return nil
}

// writeReg writes one register on the chip at address 0.
func (d *Dev) writeReg(reg, val byte) error {
	if err := d.c.Tx([]byte{reg, val}, nil); err != nil {
		return fmt.Errorf("max7219: write register 0x%02X: %w", reg, err)
	}
	return nil
}

// ColorModel returns the color model of the display.
func (d *Dev) ColorModel() color.Model {
	return bitmap.BitModel
}

// Bounds returns the image bounds of the display.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// Frame returns the last frame written to the display.
func (d *Dev) Frame() bitmap.Frame {
	return d.frame
}

// WriteFrame shows f, powering the display on if needed. Only the rows that
// differ from what the chip already shows are transferred.
func (d *Dev) WriteFrame(f bitmap.Frame) error {
	if d.halted {
		return errHalted
	}
	if !d.on {
		if err := d.PowerOn(); err != nil {
			return err
		}
	}

	rows := f
	if d.rotated {
		rows = f.Rotate180()
	}

	for y := range rows {
		if rows[y] == d.buffer[y] {
			continue
		}
		if err := d.writeReg(regDigit0+byte(y), rows[y]); err != nil {
			return err
		}
		d.buffer[y] = rows[y]
	}
	d.frame = f
	return nil
}

// Draw draws an image onto the display.
// The dst rectangle specifies the destination region on the display.
// The src image is positioned at src point sp within the destination.
// Pixels outside dst keep their current value.
func (d *Dev) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	if d.halted {
		return errHalted
	}

	// Clip to display bounds
	dst = dst.Intersect(d.rect)
	if dst.Empty() {
		return nil
	}

	// Fast path: if source is already a full Frame
	if f, ok := src.(*bitmap.Frame); ok && dst == d.rect && sp == (image.Point{}) {
		return d.WriteFrame(*f)
	}

	next := d.frame
	draw.Draw(&next, dst, src, sp, draw.Src)
	return d.WriteFrame(next)
}

// PowerOn leaves shutdown mode. Register contents are preserved by the chip.
func (d *Dev) PowerOn() error {
	if d.halted {
		return errHalted
	}
	if err := d.writeReg(regShutdown, 0x01); err != nil {
		return err
	}
	d.on = true
	return nil
}

// PowerOff enters shutdown mode, blanking the matrix.
func (d *Dev) PowerOff() error {
	if d.halted {
		return errHalted
	}
	if err := d.writeReg(regShutdown, 0x00); err != nil {
		return err
	}
	d.on = false
	return nil
}

// Toggle switches the display between on and off.
func (d *Dev) Toggle() error {
	if d.on {
		return d.PowerOff()
	}
	return d.PowerOn()
}

// IsOn reports whether the display is out of shutdown mode.
func (d *Dev) IsOn() bool {
	return d.on
}

// Clear blanks every row.
func (d *Dev) Clear() error {
	if d.halted {
		return errHalted
	}
	return d.clearRAM()
}

// SetIntensity sets the brightness on a 0-255 scale, mapped onto the chip's
// 16 steps.
func (d *Dev) SetIntensity(intensity byte) error {
	if d.halted {
		return errHalted
	}
	if err := d.writeReg(regIntensity, intensity>>4); err != nil {
		return err
	}
	d.intensity = intensity
	return nil
}

// Intensity returns the last intensity set, on a 0-255 scale.
func (d *Dev) Intensity() byte {
	return d.intensity
}

// SetBrightness sets the brightness as a percentage (0-100).
func (d *Dev) SetBrightness(percent int) error {
	if percent < 0 || percent > 100 {
		return errors.New("max7219: brightness must be between 0 and 100")
	}
	if err := d.SetIntensity(byte(percent * 255 / 100)); err != nil {
		return err
	}
	d.brightness = percent
	return nil
}

// Brightness returns the last percentage set with SetBrightness.
func (d *Dev) Brightness() int {
	return d.brightness
}

// Halt powers off the display.
// After calling Halt, the display will not respond to further commands
// until the device is re-initialized.
func (d *Dev) Halt() error {
	d.halted = true
	d.on = false
	return d.writeReg(regShutdown, 0x00)
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("max7219.Dev{%dx%d}", d.rect.Dx(), d.rect.Dy())
}
