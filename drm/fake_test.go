package drm

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// fakeKernel answers the mode-setting ioctls from in-memory tables. Calls
// are recorded by name in the order they arrive.
type fakeKernel struct {
	fbs, crtcs, connectors, encoders []uint32

	conns     map[uint32]*fakeConnector
	encs      map[uint32]sysGetEncoder
	crtcState map[uint32]sysCrtc

	// called before a GETRESOURCES / GETCONNECTOR is answered
	onResources func(call int)
	onConnector func(id uint32, call int)
	// decides the result of a SETCRTC
	setCrtc func(req *sysCrtc) error

	capDumb    uint64
	capErr     error
	masterErr  error
	resCalls   int
	connCalls  map[uint32]int
	nextHandle uint32
	nextFB     uint32
	dumbs      map[uint32]sysCreateDumb
	fbObjs     map[uint32]uint32
	maps       map[*byte]int64
	calls      []string
	closed     bool
}

type fakeConnector struct {
	sys        sysGetConnector
	modes      []Mode
	props      []uint32
	propValues []uint64
	encoders   []uint32
}

var _ kernel = (*fakeKernel)(nil)

func testMode(name string, w, h uint16) Mode {
	m := Mode{Clock: 148500, Hdisplay: w, Vdisplay: h, Vrefresh: 60, Type: ModeTypeDriver}
	copy(m.RawName[:], name)
	return m
}

// newFakeKernel describes a card with two connectors: HDMI-A-1 connected
// with a bound encoder and CRTC, DP-1 disconnected.
func newFakeKernel() *fakeKernel {
	k := &fakeKernel{
		fbs:        []uint32{7},
		crtcs:      []uint32{31, 32},
		connectors: []uint32{41, 42},
		encoders:   []uint32{51, 52},
		conns: map[uint32]*fakeConnector{
			41: {
				sys: sysGetConnector{
					encoderID: 51, connectorID: 41, connectorType: 11, connectorTypeID: 1,
					connection: uint32(Connected), mmWidth: 520, mmHeight: 290,
				},
				modes:      []Mode{testMode(`100x50`, 100, 50), testMode(`64x32`, 64, 32)},
				props:      []uint32{1, 2},
				propValues: []uint64{0, 1},
				encoders:   []uint32{51},
			},
			42: {
				sys: sysGetConnector{
					connectorID: 42, connectorType: 10, connectorTypeID: 1,
					connection: uint32(Disconnected),
				},
				encoders: []uint32{52},
			},
		},
		encs: map[uint32]sysGetEncoder{
			51: {encoderID: 51, encoderType: 2, crtcID: 31, possibleCrtcs: 0b11},
			52: {encoderID: 52, encoderType: 2, possibleCrtcs: 0b10},
		},
		crtcState: map[uint32]sysCrtc{
			31: {crtcID: 31, fbID: 7, modeValid: 1, mode: testMode(`1024x768`, 1024, 768), gammaSize: 256},
			32: {crtcID: 32},
		},
		capDumb:   1,
		connCalls: make(map[uint32]int),
		dumbs:     make(map[uint32]sysCreateDumb),
		fbObjs:    map[uint32]uint32{7: 0}, // console framebuffer
		maps:      make(map[*byte]int64),
	}
	return k
}

func kernelSlice[T any](ptr uint64, n uint32) []T {
	if ptr == 0 || n == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(uintptr(ptr))), n)
}

func (k *fakeKernel) ioctl(req uintptr, arg unsafe.Pointer) error {
	k.calls = append(k.calls, ioctlName(req))
	switch req {
	case ioctlSetMaster, ioctlDropMaster:
		return k.masterErr
	case ioctlModeGetResources:
		if k.onResources != nil {
			k.onResources(k.resCalls)
		}
		k.resCalls++
		r := (*sysResources)(arg)
		fill(r.fbIDPtr, &r.countFbs, k.fbs)
		fill(r.crtcIDPtr, &r.countCrtcs, k.crtcs)
		fill(r.connectorIDPtr, &r.countConnectors, k.connectors)
		fill(r.encoderIDPtr, &r.countEncoders, k.encoders)
		r.minWidth, r.maxWidth, r.minHeight, r.maxHeight = 8, 8192, 8, 8192
	case ioctlModeGetConnector:
		c := (*sysGetConnector)(arg)
		id := c.connectorID
		if k.onConnector != nil {
			k.onConnector(id, k.connCalls[id])
		}
		k.connCalls[id]++
		fc, ok := k.conns[id]
		if !ok {
			return unix.ENOENT
		}
		ptrs := *c
		*c = fc.sys
		c.encodersPtr, c.modesPtr, c.propsPtr, c.propValuesPtr = ptrs.encodersPtr, ptrs.modesPtr, ptrs.propsPtr, ptrs.propValuesPtr
		c.countModes, c.countProps, c.countEncoders = ptrs.countModes, ptrs.countProps, ptrs.countEncoders
		fill(c.modesPtr, &c.countModes, fc.modes)
		props := c.countProps
		fill(c.propsPtr, &c.countProps, fc.props)
		fill(c.propValuesPtr, &props, fc.propValues)
		fill(c.encodersPtr, &c.countEncoders, fc.encoders)
	case ioctlModeGetEncoder:
		e := (*sysGetEncoder)(arg)
		enc, ok := k.encs[e.encoderID]
		if !ok {
			return unix.ENOENT
		}
		*e = enc
	case ioctlModeGetCrtc:
		c := (*sysCrtc)(arg)
		st, ok := k.crtcState[c.crtcID]
		if !ok {
			return unix.ENOENT
		}
		*c = st
	case ioctlModeSetCrtc:
		c := (*sysCrtc)(arg)
		if _, ok := k.crtcState[c.crtcID]; !ok {
			return unix.ENOENT
		}
		if _, ok := k.fbObjs[c.fbID]; c.fbID != 0 && !ok {
			return unix.ENOENT
		}
		if n := len(kernelSlice[uint32](c.setConnectorsPtr, c.countConnectors)); n != int(c.countConnectors) {
			return unix.EFAULT
		}
		if k.setCrtc != nil {
			if err := k.setCrtc(c); err != nil {
				return err
			}
		}
		st := *c
		st.setConnectorsPtr, st.countConnectors = 0, 0
		k.crtcState[c.crtcID] = st
	case ioctlModeCreateDumb:
		c := (*sysCreateDumb)(arg)
		k.nextHandle++
		c.handle = k.nextHandle
		// pitch aligned to 64 bytes like most drivers
		c.pitch = (c.width*((c.bpp+7)/8) + 63) &^ 63
		c.size = uint64(c.pitch) * uint64(c.height)
		k.dumbs[c.handle] = *c
	case ioctlModeDestroyDumb:
		c := (*sysDestroyDumb)(arg)
		if _, ok := k.dumbs[c.handle]; !ok {
			return unix.ENOENT
		}
		delete(k.dumbs, c.handle)
	case ioctlModeAddFB:
		c := (*sysFBCmd)(arg)
		if _, ok := k.dumbs[c.handle]; !ok {
			return unix.ENOENT
		}
		k.nextFB++
		c.fbID = 100 + k.nextFB
		k.fbObjs[c.fbID] = c.handle
	case ioctlModeRmFB:
		id := *(*uint32)(arg)
		if _, ok := k.fbObjs[id]; !ok {
			return unix.ENOENT
		}
		delete(k.fbObjs, id)
	case ioctlModeMapDumb:
		c := (*sysMapDumb)(arg)
		if _, ok := k.dumbs[c.handle]; !ok {
			return unix.ENOENT
		}
		c.offset = uint64(c.handle) << 32
	default:
		return unix.ENOTTY
	}
	return nil
}

// fill copies as many entries as the caller has room for and reports the
// real count, like the kernel does.
func fill[T any](ptr uint64, count *uint32, src []T) {
	copy(kernelSlice[T](ptr, *count), src)
	*count = uint32(len(src))
}

func (k *fakeKernel) capability(id uint64) (uint64, error) {
	k.calls = append(k.calls, ioctlName(ioctlGetCap))
	if k.capErr != nil {
		return 0, k.capErr
	}
	if id != CapDumbBuffer {
		return 0, unix.EINVAL
	}
	return k.capDumb, nil
}

func (k *fakeKernel) mmap(offset int64, length int) ([]byte, error) {
	k.calls = append(k.calls, `mmap`)
	handle := uint32(offset >> 32)
	buf, ok := k.dumbs[handle]
	if !ok || uint64(length) > buf.size {
		return nil, unix.EINVAL
	}
	b := make([]byte, length)
	for i := range b {
		b[i] = 0xaa
	}
	k.maps[&b[0]] = offset
	return b, nil
}

func (k *fakeKernel) munmap(b []byte) error {
	k.calls = append(k.calls, `munmap`)
	if len(b) == 0 {
		return unix.EINVAL
	}
	if _, ok := k.maps[&b[0]]; !ok {
		return fmt.Errorf(`munmap of unknown region`)
	}
	delete(k.maps, &b[0])
	return nil
}

func (k *fakeKernel) fd() uintptr { return 3 }

func (k *fakeKernel) close() error {
	k.calls = append(k.calls, `close`)
	k.closed = true
	return nil
}
