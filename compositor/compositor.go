// Package compositor keeps an ordered list of windows and repaints their
// borders onto a surface.
//
// Only the frame is drawn: a title bar and 1 pixel strips on the remaining
// sides. Window contents are not rendered, and every Render repaints every
// window in insertion order without damage tracking.
package compositor

import (
	"image"
	"log/slog"

	"github.com/srlehn/kmsfb/gfx"
	"github.com/srlehn/kmsfb/internal/errors"
	"github.com/srlehn/kmsfb/internal/logx"
	"github.com/srlehn/kmsfb/surface"
)

const (
	DefaultBarHeight   = 25
	DefaultBorderWidth = 1
)

// Window is a rectangle on screen. Later windows paint over earlier ones.
type Window struct {
	X, Y          int
	Width, Height int
}

func (w Window) Rect() image.Rectangle { return image.Rect(w.X, w.Y, w.X+w.Width, w.Y+w.Height) }

// legacy placeholder geometry
var defaultWindow = Window{X: 20, Y: 20, Width: 500, Height: 300}

type Compositor struct {
	painter *gfx.Painter
	windows []Window

	barHeight   int
	borderWidth int
	color       surface.Color
	logger      *slog.Logger
}

var _ logx.LoggerProvider = (*Compositor)(nil)

func New(painter *gfx.Painter, opts ...Option) (*Compositor, error) {
	if painter == nil {
		return nil, errors.NilParam()
	}
	c := &Compositor{
		painter:     painter,
		barHeight:   DefaultBarHeight,
		borderWidth: DefaultBorderWidth,
		color:       surface.White,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(c); err != nil {
			return nil, errors.New(err)
		}
	}
	return c, nil
}

func (c *Compositor) Logger() *slog.Logger {
	if c == nil {
		return nil
	}
	return c.logger
}

// AddWindow appends a window; it is painted above all earlier windows.
func (c *Compositor) AddWindow(x, y, width, height int) error {
	if width <= 0 || height <= 0 {
		return errors.Errorf(`invalid window size %dx%d`, width, height)
	}
	w := Window{X: x, Y: y, Width: width, Height: height}
	c.windows = append(c.windows, w)
	logx.Debug(`added window`, c, `index`, len(c.windows)-1, `rect`, w.Rect().String())
	return nil
}

// AddDefaultWindow appends a window at 20,20 of size 500x300.
func (c *Compositor) AddDefaultWindow() {
	w := defaultWindow
	_ = c.AddWindow(w.X, w.Y, w.Width, w.Height)
}

// Windows returns a copy of the window list in paint order.
func (c *Compositor) Windows() []Window {
	return append([]Window(nil), c.windows...)
}

// Render repaints the frame of every window.
func (c *Compositor) Render() {
	for i := range c.windows {
		c.renderWindow(c.windows[i])
	}
}

func (c *Compositor) renderWindow(w Window) {
	p := c.painter
	bar := min(c.barHeight, w.Height)
	bw := c.borderWidth

	p.Rectangle(w.X, w.Y, w.Width, bar, c.color)
	if w.Height <= c.barHeight {
		return
	}
	sideHeight := w.Height - c.barHeight
	p.Rectangle(w.X, w.Y+c.barHeight, bw, sideHeight, c.color)
	p.Rectangle(w.X+w.Width-bw, w.Y+c.barHeight, bw, sideHeight, c.color)
	p.Rectangle(w.X, w.Y+w.Height-bw, w.Width, bw, c.color)
	// TODO: render window content once windows carry a buffer
}
