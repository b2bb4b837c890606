package surface_test

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srlehn/kmsfb/surface"
)

func TestSetPixelRoundTrip(t *testing.T) {
	s, err := surface.NewMemory(16, 9)
	require.NoError(t, err)
	colors := []surface.Color{
		surface.White,
		surface.RGBA(1, 2, 3, 4),
		surface.RGBA(0xff, 0, 0x80, 0),
	}
	for y := 0; y < s.Height(); y++ {
		for x := 0; x < s.Width(); x++ {
			c := colors[(x+y)%len(colors)]
			require.NoError(t, s.SetPixel(x, y, c))
			got, err := s.Pixel(x, y)
			require.NoError(t, err)
			assert.Equal(t, c, got, `pixel (%d,%d)`, x, y)
		}
	}
}

func TestSetPixelOutOfBounds(t *testing.T) {
	pix := make([]byte, 4*4*surface.BytesPerPixel+8)
	s, err := surface.New(pix[:4*4*surface.BytesPerPixel], 4, 4, 4*surface.BytesPerPixel)
	require.NoError(t, err)

	for _, p := range []image.Point{{-1, 0}, {0, -1}, {4, 0}, {0, 4}, {4, 4}, {-5, 100}} {
		err := s.SetPixel(p.X, p.Y, surface.White)
		assert.ErrorIs(t, err, surface.ErrOutOfBounds, `point %v`, p)
		_, err = s.Pixel(p.X, p.Y)
		assert.ErrorIs(t, err, surface.ErrOutOfBounds, `point %v`, p)
	}
	for _, b := range pix {
		assert.Zero(t, b, `rejected writes must not touch memory`)
	}
}

func TestPitchLayout(t *testing.T) {
	// driver padded rows: 3 pixels wide, 16 bytes per row
	const pitch = 16
	pix := make([]byte, pitch*2)
	s, err := surface.New(pix, 3, 2, pitch)
	require.NoError(t, err)

	require.NoError(t, s.SetPixel(0, 1, surface.RGBA(0x11, 0x22, 0x33, 0x44)))
	assert.Equal(t, []byte{0x33, 0x22, 0x11, 0x44}, pix[pitch:pitch+4], `memory order is B, G, R, A`)
	assert.Equal(t, pitch, s.PixOffset(0, 1))

	s.FillRow(-2, 10, 0, surface.White)
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, pix[8:12])
	assert.Equal(t, []byte{0, 0, 0, 0}, pix[12:16], `padding stays untouched`)
}

func TestNewRejectsBadLayout(t *testing.T) {
	tests := map[string]struct {
		pix                  int
		width, height, pitch int
	}{
		`zero width`:  {pix: 64, width: 0, height: 2, pitch: 16},
		`short pitch`: {pix: 64, width: 4, height: 2, pitch: 8},
		`short data`:  {pix: 20, width: 4, height: 2, pitch: 16},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := surface.New(make([]byte, tc.pix), tc.width, tc.height, tc.pitch)
			assert.ErrorIs(t, err, surface.ErrInvalidLayout)
		})
	}
}

func TestDrawImage(t *testing.T) {
	s, err := surface.NewMemory(4, 4)
	require.NoError(t, err)
	src := image.NewUniform(color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	draw.Draw(s, image.Rect(1, 1, 3, 3), src, image.Point{}, draw.Src)

	got, err := s.Pixel(2, 2)
	require.NoError(t, err)
	assert.Equal(t, surface.RGBA(10, 20, 30, 255), got)
	got, err = s.Pixel(0, 0)
	require.NoError(t, err)
	assert.Equal(t, surface.Color{}, got)
	assert.Equal(t, surface.Color{}, s.At(-1, 0))
}
