package drm

import (
	"runtime"
	"unsafe"

	drmlib "github.com/NeowayLabs/drm"
	"github.com/NeowayLabs/drm/ioctl"
)

// Records passed to the kernel. Field order, widths and padding follow
// include/uapi/drm/drm.h and drm_mode.h exactly; abi_test.go pins the sizes.

const DisplayModeLen = 32

type (
	sysResources struct {
		fbIDPtr        uint64
		crtcIDPtr      uint64
		connectorIDPtr uint64
		encoderIDPtr   uint64

		countFbs        uint32
		countCrtcs      uint32
		countConnectors uint32
		countEncoders   uint32

		minWidth, maxWidth   uint32
		minHeight, maxHeight uint32
	}

	sysGetConnector struct {
		encodersPtr   uint64
		modesPtr      uint64
		propsPtr      uint64
		propValuesPtr uint64

		countModes    uint32
		countProps    uint32
		countEncoders uint32

		encoderID       uint32 // current encoder
		connectorID     uint32
		connectorType   uint32
		connectorTypeID uint32

		connection        uint32
		mmWidth, mmHeight uint32
		subpixel          uint32

		pad uint32
	}

	sysGetEncoder struct {
		encoderID   uint32
		encoderType uint32

		crtcID uint32 // current crtc

		possibleCrtcs  uint32
		possibleClones uint32
	}

	sysCrtc struct {
		setConnectorsPtr uint64
		countConnectors  uint32

		crtcID uint32
		fbID   uint32

		x, y uint32 // position on the framebuffer

		gammaSize uint32
		modeValid uint32
		mode      Mode
	}

	sysCreateDumb struct {
		height uint32
		width  uint32
		bpp    uint32
		flags  uint32

		// filled by the kernel
		handle uint32
		pitch  uint32
		size   uint64
	}

	sysMapDumb struct {
		handle uint32
		pad    uint32

		// fake offset for the following mmap call
		offset uint64
	}

	sysDestroyDumb struct {
		handle uint32
	}

	sysFBCmd struct {
		fbID          uint32
		width, height uint32
		pitch         uint32
		bpp           uint32
		depth         uint32

		handle uint32 // driver specific handle
	}
)

// Request codes. NeowayLabs/drm only exports GET_CAP; the mode records it
// encodes are unexported and CreateFB narrows geometry to uint16, so the
// sizes come from the records above.
var (
	ioctlGetCap = uintptr(drmlib.IOCTLGetCap)

	// _IO, no record
	ioctlSetMaster  = uintptr(ioctl.NewCode(0, 0, drmlib.IOCTLBase, 0x1E))
	ioctlDropMaster = uintptr(ioctl.NewCode(0, 0, drmlib.IOCTLBase, 0x1F))

	ioctlModeGetResources = uintptr(ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(sysResources{})), drmlib.IOCTLBase, 0xA0))
	ioctlModeGetCrtc = uintptr(ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(sysCrtc{})), drmlib.IOCTLBase, 0xA1))
	ioctlModeSetCrtc = uintptr(ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(sysCrtc{})), drmlib.IOCTLBase, 0xA2))
	ioctlModeGetEncoder = uintptr(ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(sysGetEncoder{})), drmlib.IOCTLBase, 0xA6))
	ioctlModeGetConnector = uintptr(ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(sysGetConnector{})), drmlib.IOCTLBase, 0xA7))
	ioctlModeAddFB = uintptr(ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(sysFBCmd{})), drmlib.IOCTLBase, 0xAE))
	ioctlModeRmFB = uintptr(ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(uint32(0))), drmlib.IOCTLBase, 0xAF))
	ioctlModeCreateDumb = uintptr(ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(sysCreateDumb{})), drmlib.IOCTLBase, 0xB2))
	ioctlModeMapDumb = uintptr(ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(sysMapDumb{})), drmlib.IOCTLBase, 0xB3))
	ioctlModeDestroyDumb = uintptr(ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(sysDestroyDumb{})), drmlib.IOCTLBase, 0xB4))
)

var ioctlNames = map[uintptr]string{
	ioctlGetCap:           `DRM_IOCTL_GET_CAP`,
	ioctlSetMaster:        `DRM_IOCTL_SET_MASTER`,
	ioctlDropMaster:       `DRM_IOCTL_DROP_MASTER`,
	ioctlModeGetResources: `DRM_IOCTL_MODE_GETRESOURCES`,
	ioctlModeGetCrtc:      `DRM_IOCTL_MODE_GETCRTC`,
	ioctlModeSetCrtc:      `DRM_IOCTL_MODE_SETCRTC`,
	ioctlModeGetEncoder:   `DRM_IOCTL_MODE_GETENCODER`,
	ioctlModeGetConnector: `DRM_IOCTL_MODE_GETCONNECTOR`,
	ioctlModeAddFB:        `DRM_IOCTL_MODE_ADDFB`,
	ioctlModeRmFB:         `DRM_IOCTL_MODE_RMFB`,
	ioctlModeCreateDumb:   `DRM_IOCTL_MODE_CREATE_DUMB`,
	ioctlModeMapDumb:      `DRM_IOCTL_MODE_MAP_DUMB`,
	ioctlModeDestroyDumb:  `DRM_IOCTL_MODE_DESTROY_DUMB`,
}

func ioctlName(req uintptr) string {
	if name, ok := ioctlNames[req]; ok {
		return name
	}
	return `DRM_IOCTL_UNKNOWN`
}

// pinnedPtr pins the first element of s and returns its address for a
// kernel pointer field. The caller unpins after the ioctl returns.
func pinnedPtr[T any](p *runtime.Pinner, s []T) uint64 {
	if len(s) == 0 {
		return 0
	}
	p.Pin(&s[0])
	return uint64(uintptr(unsafe.Pointer(&s[0])))
}
