// Package kmsfb sets up a drawable display on Linux kernel mode-setting
// hardware: it opens a DRM device, activates the first usable connector and
// hands out a painter for its mapped framebuffer.
package kmsfb

import (
	"image"
	"log/slog"
	"os"

	"golang.org/x/image/draw"

	"github.com/srlehn/kmsfb/drm"
	"github.com/srlehn/kmsfb/gfx"
	"github.com/srlehn/kmsfb/internal"
	"github.com/srlehn/kmsfb/internal/consts"
	"github.com/srlehn/kmsfb/internal/errors"
	"github.com/srlehn/kmsfb/internal/logx"
)

var (
	// DefaultConfig is applied before caller options by Open and Start.
	DefaultConfig = drm.Options{
		drm.SetAcquireMaster(true),
	}
)

// DefaultDevicePath is $KMSFB_DEVICE, or /dev/dri/card0 if that is unset.
func DefaultDevicePath() string {
	if p := os.Getenv(consts.EnvDevice); len(p) > 0 {
		return p
	}
	return consts.DRMDeviceDefault
}

// Open opens the device at path (DefaultDevicePath if empty).
func Open(path string, opts ...drm.Option) (*drm.Device, error) {
	if len(path) == 0 {
		path = DefaultDevicePath()
	}
	return drm.Open(path, append([]drm.Option{DefaultConfig}, opts...)...)
}

// Session is an activated display and the device it belongs to.
type Session struct {
	Device  *drm.Device
	Display *drm.Display
	Painter *gfx.Painter

	closer internal.Closer
}

var _ logx.LoggerProvider = (*Session)(nil)

// Start opens the device, activates the first usable connector and wraps
// its surface in a painter.
func Start(path string, opts ...drm.Option) (_ *Session, err error) {
	dev, err := Open(path, opts...)
	if err != nil {
		return nil, err
	}
	s := &Session{Device: dev, closer: internal.NewCloser()}
	s.closer.OnClose(dev.Close)
	defer func() {
		if err != nil {
			_ = s.Close()
		}
	}()

	conns, err := dev.Connectors()
	if err != nil {
		return nil, err
	}
	var conn *drm.Connector
	for _, c := range conns {
		if c.Usable() {
			conn = c
			break
		}
	}
	if conn == nil {
		return nil, errors.Join(drm.ErrActivation, errors.Errorf(`no usable connector on %s`, dev.Path()))
	}
	logx.Info(`using connector`, s, `connector`, conn.Name(), `crtc`, conn.CrtcID)

	s.Display, err = dev.Activate(conn)
	if err != nil {
		return nil, err
	}
	s.Painter, err = gfx.New(s.Display.Surface())
	if err != nil {
		return nil, err
	}
	return s, nil
}

// OnClose registers fn to run before the display and device are released.
func (s *Session) OnClose(fn func() error) {
	if s == nil {
		return
	}
	s.closer.OnClose(fn)
}

// Close releases the display, restores the previous CRTC state and closes
// the device.
func (s *Session) Close() error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func (s *Session) Logger() *slog.Logger {
	if s == nil {
		return nil
	}
	return s.Device.Logger()
}

// DrawImage scales img to fit the surface, keeping its aspect ratio.
func (s *Session) DrawImage(img image.Image, scaler draw.Scaler) error {
	if s == nil || s.Painter == nil {
		return errors.NilReceiver()
	}
	if img == nil {
		return errors.NilParam()
	}
	dst := gfx.FitRect(img.Bounds().Size(), s.Painter.Bounds())
	return s.Painter.DrawImage(img, dst, scaler)
}
