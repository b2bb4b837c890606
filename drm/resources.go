package drm

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/srlehn/kmsfb/internal/logx"
)

// Resources lists the mode-setting objects the kernel knows for a device.
type Resources struct {
	FrameBuffers []uint32
	Crtcs        []uint32
	Connectors   []uint32
	Encoders     []uint32

	MinWidth, MaxWidth   uint32
	MinHeight, MaxHeight uint32
}

// Resources enumerates framebuffer, CRTC, connector and encoder ids.
//
// The first call passes no arrays and learns the counts, the second passes
// arrays of exactly those sizes. If the counts differ on the second call
// (objects appeared in between) the pair is repeated.
func (d *Device) Resources() (*Resources, error) {
	op := ioctlName(ioctlModeGetResources)
	for attempt := 0; ; attempt++ {
		var res sysResources
		if err := d.k.ioctl(ioctlModeGetResources, unsafe.Pointer(&res)); err != nil {
			return nil, newError(ErrResourceQuery, op, 0, err)
		}
		counts := res

		ret := &Resources{
			FrameBuffers: make([]uint32, counts.countFbs),
			Crtcs:        make([]uint32, counts.countCrtcs),
			Connectors:   make([]uint32, counts.countConnectors),
			Encoders:     make([]uint32, counts.countEncoders),
		}
		var pin runtime.Pinner
		res.fbIDPtr = pinnedPtr(&pin, ret.FrameBuffers)
		res.crtcIDPtr = pinnedPtr(&pin, ret.Crtcs)
		res.connectorIDPtr = pinnedPtr(&pin, ret.Connectors)
		res.encoderIDPtr = pinnedPtr(&pin, ret.Encoders)
		err := d.k.ioctl(ioctlModeGetResources, unsafe.Pointer(&res))
		pin.Unpin()
		if err != nil {
			return nil, newError(ErrResourceQuery, op, 0, err)
		}

		if res.countFbs != counts.countFbs || res.countCrtcs != counts.countCrtcs ||
			res.countConnectors != counts.countConnectors || res.countEncoders != counts.countEncoders {
			if attempt < d.retries {
				logx.Debug(`resource counts changed between queries, retrying`, d, `attempt`, attempt+1)
				continue
			}
			return nil, newError(ErrResourceQuery, op, 0, fmt.Errorf(`resource counts unstable after %d attempts`, attempt+1))
		}

		ret.MinWidth, ret.MaxWidth = res.minWidth, res.maxWidth
		ret.MinHeight, ret.MaxHeight = res.minHeight, res.maxHeight
		logx.Debug(`enumerated resources`, d,
			`framebuffers`, len(ret.FrameBuffers), `crtcs`, len(ret.Crtcs),
			`connectors`, len(ret.Connectors), `encoders`, len(ret.Encoders))
		return ret, nil
	}
}
