// Package surface is a pixel surface over 32 bit XRGB8888 memory, usually a
// mapped dumb buffer that is scanned out while being written.
package surface

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	errorsInt "github.com/srlehn/kmsfb/internal/errors"
)

const BytesPerPixel = 4

var (
	ErrOutOfBounds   = errors.New(`pixel out of bounds`)
	ErrInvalidLayout = errors.New(`invalid surface layout`)
)

// Color is written as a plain overwrite: no blending, not premultiplied.
type Color struct {
	R, G, B, A uint8
}

func RGBA(r, g, b, a uint8) Color { return Color{R: r, G: g, B: b, A: a} }

var (
	Black = Color{A: 0xff}
	White = Color{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	Red   = Color{R: 0xff, A: 0xff}
	Green = Color{G: 0xff, A: 0xff}
	Blue  = Color{B: 0xff, A: 0xff}
)

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}.RGBA()
}

// bytes in memory order: XRGB8888 is little endian, so blue comes first
func (c Color) bytes() [BytesPerPixel]byte { return [BytesPerPixel]byte{c.B, c.G, c.R, c.A} }

func colorFromBytes(b []byte) Color { return Color{R: b[2], G: b[1], B: b[0], A: b[3]} }

// Model converts any color.Color to a Color.
var Model color.Model = color.ModelFunc(func(c color.Color) color.Color {
	if c, ok := c.(Color); ok {
		return c
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color{R: n.R, G: n.G, B: n.B, A: n.A}
})

// Surface is width x height pixels, rows pitch bytes apart. The pixel at
// (x, y) starts at Pix[y*pitch + x*4].
type Surface struct {
	pix    []byte
	width  int
	height int
	pitch  int
}

// New checks that pix holds height rows of pitch bytes (the last row only
// needs its pixels) and wraps it. The surface writes into pix directly.
func New(pix []byte, width, height, pitch int) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, errorsInt.New(fmt.Errorf(`%w: size %dx%d`, ErrInvalidLayout, width, height))
	}
	if pitch < width*BytesPerPixel {
		return nil, errorsInt.New(fmt.Errorf(`%w: pitch %d below %d bytes per row`, ErrInvalidLayout, pitch, width*BytesPerPixel))
	}
	if need := pitch*(height-1) + width*BytesPerPixel; len(pix) < need {
		return nil, errorsInt.New(fmt.Errorf(`%w: %d bytes, need %d`, ErrInvalidLayout, len(pix), need))
	}
	return &Surface{pix: pix, width: width, height: height, pitch: pitch}, nil
}

// NewMemory allocates a surface in process memory, with pitch width*4.
func NewMemory(width, height int) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, errorsInt.New(fmt.Errorf(`%w: size %dx%d`, ErrInvalidLayout, width, height))
	}
	return New(make([]byte, width*height*BytesPerPixel), width, height, width*BytesPerPixel)
}

func (s *Surface) Width() int  { return s.width }
func (s *Surface) Height() int { return s.height }
func (s *Surface) Pitch() int  { return s.pitch }

// PixOffset returns the index of the first byte of the pixel at (x, y). It
// does not check bounds.
func (s *Surface) PixOffset(x, y int) int { return y*s.pitch + x*BytesPerPixel }

func (s *Surface) in(x, y int) bool { return x >= 0 && y >= 0 && x < s.width && y < s.height }

// SetPixel writes c at (x, y).
func (s *Surface) SetPixel(x, y int, c Color) error {
	if s == nil {
		return errorsInt.NilReceiver()
	}
	if !s.in(x, y) {
		return errorsInt.New(fmt.Errorf(`%w: (%d,%d) outside %dx%d`, ErrOutOfBounds, x, y, s.width, s.height))
	}
	b := c.bytes()
	i := s.PixOffset(x, y)
	copy(s.pix[i:i+BytesPerPixel:i+BytesPerPixel], b[:])
	return nil
}

// Pixel reads the color at (x, y).
func (s *Surface) Pixel(x, y int) (Color, error) {
	if s == nil {
		return Color{}, errorsInt.NilReceiver()
	}
	if !s.in(x, y) {
		return Color{}, errorsInt.New(fmt.Errorf(`%w: (%d,%d) outside %dx%d`, ErrOutOfBounds, x, y, s.width, s.height))
	}
	i := s.PixOffset(x, y)
	return colorFromBytes(s.pix[i : i+BytesPerPixel : i+BytesPerPixel]), nil
}

// FillRow sets the pixels [x0, x1) of row y to c, clipped to the surface.
// The first pixel is written once and then doubled with copy.
func (s *Surface) FillRow(x0, x1, y int, c Color) {
	if s == nil || y < 0 || y >= s.height {
		return
	}
	x0 = max(x0, 0)
	x1 = min(x1, s.width)
	if x0 >= x1 {
		return
	}
	row := s.pix[s.PixOffset(x0, y):s.PixOffset(x1, y)]
	b := c.bytes()
	n := copy(row, b[:])
	for n < len(row) {
		n += copy(row[n:], row[:n])
	}
}

var _ draw.Image = (*Surface)(nil)

func (s *Surface) ColorModel() color.Model { return Model }

func (s *Surface) Bounds() image.Rectangle {
	if s == nil {
		return image.Rectangle{}
	}
	return image.Rect(0, 0, s.width, s.height)
}

// At implements image.Image. Out of range reads return the zero Color.
func (s *Surface) At(x, y int) color.Color {
	c, _ := s.Pixel(x, y)
	return c
}

// Set implements draw.Image. Like image.RGBA it ignores out of range writes;
// use SetPixel to get them reported.
func (s *Surface) Set(x, y int, c color.Color) {
	if s == nil || c == nil || !s.in(x, y) {
		return
	}
	_ = s.SetPixel(x, y, Model.Convert(c).(Color))
}
