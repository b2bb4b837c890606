package drm

import (
	"log/slog"

	"github.com/srlehn/kmsfb/internal/errors"
)

type Option interface {
	ApplyOption(d *Device) error
}

var _ Option = (OptFunc)(nil)

type OptFunc func(*Device) error

func (o OptFunc) ApplyOption(d *Device) error { return o(d) }

var _ Option = (Options)(nil)

type Options []Option

func (o Options) ApplyOption(d *Device) error { return d.SetOptions([]Option(o)...) }

func (d *Device) SetOptions(opts ...Option) error {
	if d == nil {
		return errors.NilReceiver()
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.ApplyOption(d); err != nil {
			return errors.New(err)
		}
	}
	return nil
}

// SetLogger sets the diagnostics logger. nil disables logging.
func SetLogger(logger *slog.Logger) Option {
	return OptFunc(func(d *Device) error { d.logger = logger; return nil })
}

// SetRetries sets how often a two-phase query is repeated when the counts
// reported by the kernel change between its two calls.
func SetRetries(n int) Option {
	return OptFunc(func(d *Device) error {
		if n < 0 {
			return errors.New(`negative retry count`)
		}
		d.retries = n
		return nil
	})
}

// SetAcquireMaster makes Open request DRM master. A failed request is logged,
// not fatal: the first opener of a card is master already.
func SetAcquireMaster(acquire bool) Option {
	return OptFunc(func(d *Device) error { d.acquireMaster = acquire; return nil })
}

const defaultRetries = 3
