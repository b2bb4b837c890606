package compositor

import (
	"log/slog"

	"github.com/srlehn/kmsfb/internal/errors"
	"github.com/srlehn/kmsfb/surface"
)

type Option func(*Compositor) error

func SetBarHeight(h int) Option {
	return func(c *Compositor) error {
		if h < 0 {
			return errors.Errorf(`negative bar height %d`, h)
		}
		c.barHeight = h
		return nil
	}
}

func SetBorderWidth(w int) Option {
	return func(c *Compositor) error {
		if w < 0 {
			return errors.Errorf(`negative border width %d`, w)
		}
		c.borderWidth = w
		return nil
	}
}

func SetColor(col surface.Color) Option {
	return func(c *Compositor) error { c.color = col; return nil }
}

func SetLogger(logger *slog.Logger) Option {
	return func(c *Compositor) error { c.logger = logger; return nil }
}
