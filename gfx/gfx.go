// Package gfx draws points, lines and rectangles onto a pixel surface.
package gfx

import (
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/srlehn/kmsfb/internal/errors"
	"github.com/srlehn/kmsfb/surface"
)

// Target is what a Painter draws on. *surface.Surface implements it.
type Target interface {
	draw.Image
	SetPixel(x, y int, c surface.Color) error
}

// rowFiller is an optional fast path for horizontal runs.
type rowFiller interface {
	FillRow(x0, x1, y int, c surface.Color)
}

// Painter issues drawing primitives against one Target. Lines and rectangles
// are clipped to the target; Point reports out of range coordinates.
type Painter struct {
	dst Target
}

func New(dst Target) (*Painter, error) {
	if dst == nil {
		return nil, errors.NilParam()
	}
	return &Painter{dst: dst}, nil
}

func (p *Painter) Target() Target { return p.dst }

func (p *Painter) Bounds() image.Rectangle { return p.dst.Bounds() }

// Point sets a single pixel.
func (p *Painter) Point(x, y int, c surface.Color) error {
	return p.dst.SetPixel(x, y, c)
}

// VerticalLine paints height pixels downwards from (x, y).
func (p *Painter) VerticalLine(x, y, height int, c surface.Color) {
	p.Rectangle(x, y, 1, height, c)
}

// HorizontalLine paints width pixels rightwards from (x, y).
func (p *Painter) HorizontalLine(x, y, width int, c surface.Color) {
	p.Rectangle(x, y, width, 1, c)
}

// Rectangle fills [x, x+width) x [y, y+height). The pixels are the same as
// for width vertical lines; rows are written as runs.
func (p *Painter) Rectangle(x, y, width, height int, c surface.Color) {
	if width <= 0 || height <= 0 {
		return
	}
	r := image.Rect(x, y, clampedEnd(x, width), clampedEnd(y, height)).Intersect(p.dst.Bounds())
	if r.Empty() {
		return
	}
	if rf, ok := p.dst.(rowFiller); ok {
		for row := r.Min.Y; row < r.Max.Y; row++ {
			rf.FillRow(r.Min.X, r.Max.X, row, c)
		}
		return
	}
	for col := r.Min.X; col < r.Max.X; col++ {
		for row := r.Min.Y; row < r.Max.Y; row++ {
			_ = p.dst.SetPixel(col, row, c)
		}
	}
}

// clampedEnd is start+length saturated at math.MaxInt.
func clampedEnd(start, length int) int {
	if start > 0 {
		length = min(length, math.MaxInt-start)
	}
	return start + length
}

// Clear paints the whole target with c.
func (p *Painter) Clear(c surface.Color) {
	b := p.dst.Bounds()
	p.Rectangle(b.Min.X, b.Min.Y, b.Dx(), b.Dy(), c)
}

// DrawImage scales img into dst with scaler. A nil scaler means
// draw.ApproxBiLinear. Pixels are overwritten, not blended.
func (p *Painter) DrawImage(img image.Image, dst image.Rectangle, scaler draw.Scaler) error {
	if img == nil {
		return errors.NilParam()
	}
	if scaler == nil {
		scaler = draw.ApproxBiLinear
	}
	dst = dst.Intersect(p.dst.Bounds())
	if dst.Empty() {
		return nil
	}
	scaler.Scale(p.dst, dst, img, img.Bounds(), draw.Src, nil)
	return nil
}

// FitRect returns the largest rectangle with the aspect ratio of src that
// fits centered into bounds.
func FitRect(src image.Point, bounds image.Rectangle) image.Rectangle {
	if src.X <= 0 || src.Y <= 0 || bounds.Empty() {
		return image.Rectangle{}
	}
	w, h := bounds.Dx(), bounds.Dy()
	if src.X*h > src.Y*w {
		h = src.Y * w / src.X
	} else {
		w = src.X * h / src.Y
	}
	origin := bounds.Min.Add(image.Pt((bounds.Dx()-w)/2, (bounds.Dy()-h)/2))
	return image.Rectangle{Min: origin, Max: origin.Add(image.Pt(w, h))}
}
