package drm

import (
	"fmt"
	"log/slog"

	"github.com/srlehn/kmsfb/internal"
	"github.com/srlehn/kmsfb/internal/errors"
	"github.com/srlehn/kmsfb/internal/logx"
	"github.com/srlehn/kmsfb/surface"
)

const (
	displayBPP   = 32
	displayDepth = 24
)

// Display is a connector scanning out a mapped dumb buffer. Drawing on its
// Surface is immediately visible.
type Display struct {
	dev       *Device
	connector *Connector
	crtcID    uint32
	mode      Mode

	buf     *DumbBuffer
	fb      *FrameBuffer
	mapping *Mapping
	surface *surface.Surface

	saved  *Crtc
	closer internal.Closer
}

// Activate binds a fresh, cleared framebuffer to conn. The connector's modes
// are tried in list order; a mode the CRTC refuses is released and the next
// one is tried. Any other failure ends the attempt.
//
// The CRTC state found before activation is restored by Display.Close. The
// display is also closed by Device.Close.
func (d *Device) Activate(conn *Connector) (*Display, error) {
	if d == nil {
		return nil, errors.NilReceiver()
	}
	if !conn.Usable() {
		var id uint32
		if conn != nil {
			id = conn.ID
		}
		return nil, newError(ErrActivation, `activate`, id, fmt.Errorf(`connector %s is not usable`, conn.Name()))
	}

	if dumb, err := d.Capability(CapDumbBuffer); err != nil {
		logx.Debug(`could not query dumb buffer capability`, d, `err`, err)
	} else if dumb == 0 {
		return nil, newError(ErrBufferAllocation, ioctlName(ioctlGetCap), 0, fmt.Errorf(`device %s has no dumb buffer support`, d.path))
	}

	saved, err := d.Crtc(conn.CrtcID)
	if err != nil {
		logx.Warn(`could not save crtc state`, d, `crtc`, conn.CrtcID, `err`, err)
		saved = nil
	}

	var errs []error
	for i := range conn.Modes {
		disp, err := d.activateMode(conn, conn.Modes[i], saved)
		if err == nil {
			d.closer.OnClose(disp.Close)
			logx.Info(`activated display`, d, `connector`, conn.Name(), `crtc`, conn.CrtcID, `mode`, disp.mode.String())
			return disp, nil
		}
		if !errors.Is(err, ErrActivation) {
			return nil, err
		}
		logx.Warn(`mode refused, trying next`, d, `connector`, conn.Name(), `mode`, conn.Modes[i].String(), `err`, err)
		errs = append(errs, err)
	}
	return nil, newError(ErrActivation, `activate`, conn.ID, errors.Join(errs...))
}

func (d *Device) activateMode(conn *Connector, mode Mode, saved *Crtc) (_ *Display, err error) {
	disp := &Display{
		dev:       d,
		connector: conn,
		crtcID:    conn.CrtcID,
		mode:      mode,
		saved:     saved,
		closer:    internal.NewCloser(),
	}
	defer func() {
		if err != nil {
			_ = disp.closer.Close()
		}
	}()

	disp.buf, err = d.CreateDumbBuffer(mode.Width(), mode.Height(), displayBPP)
	if err != nil {
		return nil, err
	}
	buf := disp.buf
	disp.closer.OnClose(func() error { return d.DestroyDumbBuffer(buf) })

	disp.fb, err = d.AddFrameBuffer(buf, displayDepth)
	if err != nil {
		return nil, err
	}
	fb := disp.fb
	disp.closer.OnClose(func() error { return d.RemoveFrameBuffer(fb) })

	disp.mapping, err = d.MapDumbBuffer(buf)
	if err != nil {
		return nil, err
	}
	disp.closer.OnClose(disp.mapping.Unmap)

	disp.surface, err = surface.New(disp.mapping.Bytes(), int(buf.Width), int(buf.Height), int(buf.Pitch))
	if err != nil {
		return nil, newError(ErrMapping, `surface`, buf.Handle, err)
	}
	clear(disp.mapping.Bytes())

	if err = d.SetCrtc(disp.crtcID, fb.ID, []uint32{conn.ID}, &disp.mode); err != nil {
		return nil, err
	}
	disp.closer.OnClose(disp.restore)
	return disp, nil
}

// restore puts the saved CRTC configuration back, or disables the CRTC if
// none was saved.
func (p *Display) restore() error {
	s := p.saved
	if s == nil || !s.ModeValid || s.BufferID == 0 {
		return p.dev.SetCrtc(p.crtcID, 0, nil, nil)
	}
	mode := s.Mode
	return p.dev.SetCrtc(s.ID, s.BufferID, []uint32{p.connector.ID}, &mode)
}

// Close restores the previous CRTC state, then unmaps, unregisters and
// destroys the buffer. Further calls do nothing.
func (p *Display) Close() error {
	if p == nil || p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

// Surface is the mapped buffer. It must not be used after Close.
func (p *Display) Surface() *surface.Surface { return p.surface }

func (p *Display) Connector() *Connector { return p.connector }

func (p *Display) CrtcID() uint32 { return p.crtcID }

// Mode is the mode the CRTC accepted.
func (p *Display) Mode() Mode { return p.mode }

func (p *Display) FrameBuffer() *FrameBuffer { return p.fb }

var _ logx.LoggerProvider = (*Display)(nil)

func (p *Display) Logger() *slog.Logger {
	if p == nil {
		return nil
	}
	return p.dev.Logger()
}
