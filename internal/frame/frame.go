// Package frame holds the 1-bit frame the render loop composes into before
// handing it to the display. A Frame is both an image/draw image (so the
// x/image scalers can write to it) and a drivers.Displayer (so tinyfont and
// textbuf can draw on it).
package frame

import (
	"image"
	"image/color"
)

var (
	// On is the lit-pixel color.
	On = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	// Off is the dark-pixel color.
	Off = color.RGBA{A: 0xFF}
)

// Frame is a fixed-size 1-bit pixel grid, stored row-major.
type Frame struct {
	w, h int
	pix  []uint8 // one byte per pixel, 0 or 1
}

// New returns a cleared w by h frame.
func New(w, h int) *Frame {
	return &Frame{w: w, h: h, pix: make([]uint8, w*h)}
}

// Clear turns every pixel off.
func (f *Frame) Clear() {
	for i := range f.pix {
		f.pix[i] = 0
	}
}

// Fill turns every pixel on (or off).
func (f *Frame) Fill(on bool) {
	v := uint8(0)
	if on {
		v = 1
	}
	for i := range f.pix {
		f.pix[i] = v
	}
}

// Get reports whether the pixel at (x, y) is lit. Out-of-range coordinates
// read as off.
func (f *Frame) Get(x, y int) bool {
	if x < 0 || x >= f.w || y < 0 || y >= f.h {
		return false
	}
	return f.pix[y*f.w+x] != 0
}

// SetBit sets or clears the pixel at (x, y). Out-of-range coordinates are
// ignored.
func (f *Frame) SetBit(x, y int, on bool) {
	if x < 0 || x >= f.w || y < 0 || y >= f.h {
		return
	}
	if on {
		f.pix[y*f.w+x] = 1
	} else {
		f.pix[y*f.w+x] = 0
	}
}

// image.Image

func (f *Frame) ColorModel() color.Model { return color.GrayModel }

func (f *Frame) Bounds() image.Rectangle { return image.Rect(0, 0, f.w, f.h) }

func (f *Frame) At(x, y int) color.Color {
	if f.Get(x, y) {
		return color.Gray{Y: 0xFF}
	}
	return color.Gray{Y: 0}
}

// draw.Image; any color at least half luminous lights the pixel.

func (f *Frame) Set(x, y int, c color.Color) {
	f.SetBit(x, y, bright(c))
}

// drivers.Displayer

func (f *Frame) Size() (x, y int16) { return int16(f.w), int16(f.h) }

func (f *Frame) SetPixel(x, y int16, c color.RGBA) {
	f.SetBit(int(x), int(y), bright(c))
}

// Display is a no-op; the render loop pushes the frame to the panel itself.
func (f *Frame) Display() error { return nil }

func bright(c color.Color) bool {
	return color.GrayModel.Convert(c).(color.Gray).Y >= 0x80
}
