// Package max7219 controls a single 8x8 LED matrix driven by a MAX7219 via SPI.
//
// The MAX7219 multiplexes up to 64 LEDs from one register per row. This
// driver implements the display.Drawer interface from periph.io and the
// frame sink used by the ticker package.
//
// # Display Characteristics
//
// - 8x8 monochrome, one byte per row, bit 7 is the leftmost column
// - 16 intensity steps
// - Shutdown mode that blanks the matrix but keeps row contents
// - Optional 180° rotation for panels mounted upside down
//
// # Hardware Connection
//
//	Module Pin → System Pin
//	VCC        → 5V
//	GND        → GND
//	DIN        → SPI Data (MOSI)
//	CLK        → SPI Clock (SCLK)
//	CS/LOAD    → SPI Chip Select
//
// # Basic Usage
//
//	package main
//
//	import (
//		"periph.io/x/conn/v3/spi/spireg"
//		"periph.io/x/host/v3"
//
//		"github.com/flavioheleno/ledticker/bitmap"
//		"github.com/flavioheleno/ledticker/max7219"
//	)
//
//	func main() {
//		host.Init()
//
//		spiBus, _ := spireg.Open("")
//		defer spiBus.Close()
//
//		dev, _ := max7219.NewSPI(spiBus, &max7219.Opts{Intensity: 0x40})
//		defer dev.Halt()
//
//		// A hollow square
//		dev.WriteFrame(bitmap.Frame{0xFF, 0x81, 0x81, 0x81, 0x81, 0x81, 0x81, 0xFF})
//	}
//
// # Power Handling
//
// NewSPI clears the matrix and leaves it in shutdown mode so nothing flashes
// while the rest of the program starts. The first WriteFrame powers the
// display on. PowerOff, PowerOn and Toggle switch it explicitly.
//
// # Differential Updates
//
// The driver remembers the row registers latched in the chip and only
// transfers rows that changed. A scrolling ticker typically rewrites every
// lit row per tick, while a static frame costs nothing after the first write.
//
// # Brightness
//
// SetIntensity takes a 0-255 value and keeps the high nibble. SetBrightness
// takes a percentage:
//
//	dev.SetBrightness(50) // intensity 127, chip step 7
//
// # Datasheet
//
// https://www.analog.com/media/en/technical-documentation/data-sheets/MAX7219-MAX7221.pdf
package max7219
