package drm

import (
	"runtime"
	"unsafe"

	"github.com/srlehn/kmsfb/internal/logx"
)

// SetCrtc scans fbID out through crtcID to the given connectors using mode.
// A nil mode (with fbID 0) disables the CRTC. Issuing the same call twice
// has no further effect.
func (d *Device) SetCrtc(crtcID, fbID uint32, connectorIDs []uint32, mode *Mode) error {
	req := sysCrtc{
		crtcID:          crtcID,
		fbID:            fbID,
		countConnectors: uint32(len(connectorIDs)),
	}
	if mode != nil {
		req.modeValid = 1
		req.mode = *mode
	}
	var pin runtime.Pinner
	req.setConnectorsPtr = pinnedPtr(&pin, connectorIDs)
	err := d.k.ioctl(ioctlModeSetCrtc, unsafe.Pointer(&req))
	pin.Unpin()
	if err != nil {
		return newError(ErrActivation, ioctlName(ioctlModeSetCrtc), crtcID, err)
	}
	logx.Debug(`set crtc`, d, `crtc`, crtcID, `fb`, fbID, `connectors`, connectorIDs, `mode`, mode.String())
	return nil
}
