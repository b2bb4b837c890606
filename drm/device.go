// Package drm talks the Linux kernel mode-setting protocol over a DRM device
// node: resource enumeration, connector/encoder/CRTC inspection, dumb buffers,
// their memory mapping and the mode-set call.
//
// A Device is not safe for concurrent use.
package drm

import (
	"log/slog"

	drmlib "github.com/NeowayLabs/drm"

	"github.com/srlehn/kmsfb/internal"
	"github.com/srlehn/kmsfb/internal/errors"
	"github.com/srlehn/kmsfb/internal/logx"
)

// Capabilities for Device.Capability.
const (
	CapDumbBuffer         = drmlib.CapDumbBuffer
	CapDumbPreferredDepth = drmlib.CapDumbPreferredDepth
	CapDumbPreferShadow   = drmlib.CapDumbPreferShadow
)

// Device owns an open DRM device node and everything allocated through it.
type Device struct {
	path string
	k    kernel

	logger        *slog.Logger
	retries       int
	acquireMaster bool
	master        bool

	closer   internal.Closer
	mappings map[*Mapping]struct{}
}

var _ logx.LoggerProvider = (*Device)(nil)

// Open opens the DRM device node at path read-write.
func Open(path string, opts ...Option) (*Device, error) {
	k, err := openKernel(path)
	if err != nil {
		return nil, newError(ErrDeviceOpen, `open`, 0, err)
	}
	return newDevice(k, path, opts...)
}

func newDevice(k kernel, path string, opts ...Option) (*Device, error) {
	d := &Device{
		path:     path,
		k:        k,
		retries:  defaultRetries,
		closer:   internal.NewCloser(),
		mappings: make(map[*Mapping]struct{}),
	}
	d.closer.OnClose(k.close)
	if err := d.SetOptions(opts...); err != nil {
		_ = k.close()
		return nil, err
	}
	d.closer.OnClose(d.unmapAll)
	if d.acquireMaster {
		if err := d.SetMaster(); err != nil {
			logx.Warn(`could not acquire DRM master`, d, `device`, path, `err`, err)
		} else {
			d.closer.OnClose(d.DropMaster)
		}
	}
	logx.Debug(`opened device`, d, `device`, path)
	return d, nil
}

// Close releases, newest first, every display, mapping and master lock the
// device still holds, and then closes the device file.
func (d *Device) Close() error {
	if d == nil {
		return nil
	}
	return d.closer.Close()
}

func (d *Device) Logger() *slog.Logger {
	if d == nil {
		return nil
	}
	return d.logger
}

func (d *Device) Path() string { return d.path }

// Fd returns the device file descriptor.
func (d *Device) Fd() uintptr { return d.k.fd() }

// SetMaster requests the DRM master lock needed for mode-setting.
func (d *Device) SetMaster() error {
	if err := d.k.ioctl(ioctlSetMaster, nil); err != nil {
		return newError(ErrDeviceOpen, ioctlName(ioctlSetMaster), 0, err)
	}
	d.master = true
	return nil
}

// DropMaster releases the DRM master lock. It does nothing if it is not held.
func (d *Device) DropMaster() error {
	if !d.master {
		return nil
	}
	if err := d.k.ioctl(ioctlDropMaster, nil); err != nil {
		return newError(ErrDeviceOpen, ioctlName(ioctlDropMaster), 0, err)
	}
	d.master = false
	return nil
}

// Capability queries a DRM_CAP_* value.
func (d *Device) Capability(capability uint64) (uint64, error) {
	v, err := d.k.capability(capability)
	if err != nil {
		return 0, newError(ErrResourceQuery, ioctlName(ioctlGetCap), 0, err)
	}
	return v, nil
}

func (d *Device) unmapAll() error {
	live := make([]*Mapping, 0, len(d.mappings))
	for m := range d.mappings {
		live = append(live, m)
	}
	var errs []error
	for _, m := range live {
		if err := m.Unmap(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
