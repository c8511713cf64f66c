// Package oled drives an SSD1306-class 128x64 monochrome panel over 4-wire
// SPI. The panel addresses pixels in pages: each page is an 8-row horizontal
// band, and each data byte carries the 8 vertically-stacked pixels of one
// column within the band, LSB topmost. Pack reproduces exactly that layout;
// getting the bit order wrong scrambles the image diagonally.
package oled

import (
	"errors"
	"image"
	"image/color"
	"time"

	xdraw "golang.org/x/image/draw"
	"tinygo.org/x/drivers"

	"github.com/zheskett/raspi-alarm/internal/frame"
)

// Pin is a push-pull output line. machine.Pin satisfies it on device;
// tests supply fakes.
type Pin interface {
	High()
	Low()
}

// Config sets the panel geometry. Height must be a multiple of 8.
type Config struct {
	Width  int16
	Height int16
}

// Device is an SSD1306 connected over SPI with a D/C line, reset line and
// chip select. It owns the hardware handles exclusively.
type Device struct {
	bus drivers.SPI
	cs  Pin
	dc  Pin
	rst Pin

	width  int16
	height int16
	pages  int16
	buf    []byte // packed page/column layout, pages*width bytes

	powered bool
}

// SSD1306 command set.
const (
	cmdSetContrast        = 0x81
	cmdDisplayAllOnResume = 0xA4
	cmdNormalDisplay      = 0xA6
	cmdDisplayOff         = 0xAE
	cmdDisplayOn          = 0xAF
	cmdSetDisplayOffset   = 0xD3
	cmdSetComPins         = 0xDA
	cmdSetVComDeselect    = 0xDB
	cmdSetDisplayClockDiv = 0xD5
	cmdSetPrecharge       = 0xD9
	cmdSetMultiplex       = 0xA8
	cmdSetStartLine       = 0x40
	cmdChargePump         = 0x8D
	cmdMemoryMode         = 0x20
	cmdColumnAddr         = 0x21
	cmdPageAddr           = 0x22
	cmdSegRemapFlip       = 0xA1
	cmdComScanDec         = 0xC8
)

// Dim presets: a level selects a fixed contrast / pre-charge period / VCOMH
// deselect triple. There is no continuous brightness.
var dimPresets = [2][3]byte{
	{0x00, 0x22, 0x00}, // level 0: low
	{0xCF, 0xF1, 0x40}, // level 1: high
}

// New returns a display driver for a fully configured SPI bus. The pins are
// configured for output by the caller.
func New(bus drivers.SPI, cs, dc, rst Pin) *Device {
	return &Device{
		bus: bus,
		cs:  cs,
		dc:  dc,
		rst: rst,
	}
}

// Configure sets the geometry and brings the panel up.
func (d *Device) Configure(cfg Config) error {
	if cfg.Width == 0 {
		cfg.Width = 128
	}
	if cfg.Height == 0 {
		cfg.Height = 64
	}
	if cfg.Height%8 != 0 {
		return errors.New("oled: height must be a multiple of 8")
	}
	d.width = cfg.Width
	d.height = cfg.Height
	d.pages = cfg.Height / 8
	d.buf = make([]byte, int(d.pages)*int(d.width))
	return d.Reinitialize()
}

// Reinitialize pulses the reset line and replays the full init command
// sequence. It is safe to call mid-frame; the next Display transmits a
// coherent buffer.
func (d *Device) Reinitialize() error {
	// Reset: inactive, active for at least 5ms, inactive, then settle.
	d.rst.High()
	time.Sleep(time.Millisecond)
	d.rst.Low()
	time.Sleep(10 * time.Millisecond)
	d.rst.High()
	time.Sleep(50 * time.Millisecond)

	err := d.command(
		cmdDisplayOff,
		cmdSetDisplayClockDiv, 0x80,
		cmdSetMultiplex, byte(d.height-1),
		cmdSetDisplayOffset, 0x00,
		cmdSetStartLine|0x00,
		cmdChargePump, 0x14,
		cmdMemoryMode, 0x00, // horizontal addressing: one burst per frame
		cmdSegRemapFlip, // mirror both axes: panel is mounted upside down
		cmdComScanDec,
		cmdSetComPins, 0x12,
		cmdSetContrast, dimPresets[1][0],
		cmdSetPrecharge, dimPresets[1][1],
		cmdSetVComDeselect, dimPresets[1][2],
		cmdDisplayAllOnResume,
		cmdNormalDisplay,
		cmdDisplayOn,
	)
	if err != nil {
		return errors.New("oled: init: " + err.Error())
	}
	d.powered = true
	return nil
}

// SetDimLevel selects one of the two brightness presets. Levels outside
// {0, 1} clamp.
func (d *Device) SetDimLevel(level uint8) error {
	if level > 1 {
		level = 1
	}
	p := dimPresets[level]
	err := d.command(
		cmdSetContrast, p[0],
		cmdSetPrecharge, p[1],
		cmdSetVComDeselect, p[2],
	)
	if err != nil {
		return errors.New("oled: set dim: " + err.Error())
	}
	return nil
}

// WriteImage packs a 1-bit image into the panel layout and transmits it as a
// single burst. Images that do not match the panel size are resized with
// nearest-neighbor sampling first.
func (d *Device) WriteImage(img image.Image) error {
	b := img.Bounds()
	if int16(b.Dx()) != d.width || int16(b.Dy()) != d.height {
		dst := frame.New(int(d.width), int(d.height))
		xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
		img = dst
	}
	Pack(img, d.buf)
	return d.Display()
}

// Pack converts a row-major 1-bit image into the page/column wire layout:
// out[page*width+x] bit b holds the pixel at column x, row page*8+b (LSB is
// the topmost row of the band). out must be width*height/8 bytes.
func Pack(img image.Image, out []byte) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	for page := 0; page < h/8; page++ {
		for x := 0; x < w; x++ {
			var v byte
			for bit := 0; bit < 8; bit++ {
				if lit(img, b.Min.X+x, b.Min.Y+page*8+bit) {
					v |= 1 << bit
				}
			}
			out[page*w+x] = v
		}
	}
}

// Unpack is the inverse of Pack, reading a wire buffer back into a frame.
func Unpack(buf []byte, w, h int) *frame.Frame {
	f := frame.New(w, h)
	for page := 0; page < h/8; page++ {
		for x := 0; x < w; x++ {
			v := buf[page*w+x]
			for bit := 0; bit < 8; bit++ {
				f.SetBit(x, page*8+bit, v&(1<<bit) != 0)
			}
		}
	}
	return f
}

// Display transmits the packed buffer.
func (d *Device) Display() error {
	err := d.command(
		cmdColumnAddr, 0, byte(d.width-1),
		cmdPageAddr, 0, byte(d.pages-1),
	)
	if err != nil {
		return errors.New("oled: set window: " + err.Error())
	}
	if err := d.data(d.buf); err != nil {
		return errors.New("oled: data: " + err.Error())
	}
	return nil
}

// SetPixel sets a single pixel in the packed buffer. It takes effect on the
// next Display.
func (d *Device) SetPixel(x, y int16, c color.RGBA) {
	if x < 0 || x >= d.width || y < 0 || y >= d.height {
		return
	}
	i := int(x) + int(y/8)*int(d.width)
	if c.R|c.G|c.B != 0 {
		d.buf[i] |= 1 << uint8(y%8)
	} else {
		d.buf[i] &^= 1 << uint8(y%8)
	}
}

// ClearBuffer zeroes the packed buffer without touching the panel.
func (d *Device) ClearBuffer() {
	for i := range d.buf {
		d.buf[i] = 0
	}
}

// ClearScreen fills the panel with 0x00.
func (d *Device) ClearScreen() error {
	return d.fill(0x00)
}

// WhiteScreen fills the panel with 0xFF.
func (d *Device) WhiteScreen() error {
	return d.fill(0xFF)
}

func (d *Device) fill(v byte) error {
	for i := range d.buf {
		d.buf[i] = v
	}
	return d.Display()
}

// Size returns the panel dimensions.
func (d *Device) Size() (w, h int16) { return d.width, d.height }

// Close powers the panel off. The driver may be reconfigured afterwards.
func (d *Device) Close() error {
	if !d.powered {
		return nil
	}
	d.powered = false
	if err := d.command(cmdDisplayOff); err != nil {
		return errors.New("oled: power off: " + err.Error())
	}
	return nil
}

// command sends bytes with the D/C line low.
func (d *Device) command(cmds ...byte) error {
	d.dc.Low()
	d.cs.Low()
	err := d.bus.Tx(cmds, nil)
	d.cs.High()
	return err
}

// data sends bytes with the D/C line high.
func (d *Device) data(buf []byte) error {
	d.dc.High()
	d.cs.Low()
	err := d.bus.Tx(buf, nil)
	d.cs.High()
	return err
}

func lit(img image.Image, x, y int) bool {
	if f, ok := img.(*frame.Frame); ok {
		return f.Get(x, y)
	}
	r, g, b, _ := img.At(x, y).RGBA()
	return r|g|b != 0
}
