package drm

import (
	"fmt"
	"math"
	"unsafe"

	"github.com/dustin/go-humanize"

	"github.com/srlehn/kmsfb/internal/logx"
)

// DumbBuffer is kernel-owned, CPU-writable pixel memory without any
// acceleration semantics. Pitch and Size are chosen by the driver and are
// authoritative: Pitch may exceed Width*BPP/8.
type DumbBuffer struct {
	Handle uint32
	Width  uint32
	Height uint32
	BPP    uint32
	Pitch  uint32
	Size   uint64
}

// FrameBuffer is a dumb buffer registered as a displayable framebuffer object.
type FrameBuffer struct {
	ID     uint32
	Depth  uint32
	Buffer *DumbBuffer
}

// Mapping is a dumb buffer mapped shared and writable into process memory.
// Writes are visible to scan-out without a flush.
type Mapping struct {
	dev    *Device
	data   []byte
	offset uint64
	handle uint32
}

// CreateDumbBuffer asks the driver for a width x height buffer with bpp bits per pixel.
func (d *Device) CreateDumbBuffer(width, height, bpp uint32) (*DumbBuffer, error) {
	op := ioctlName(ioctlModeCreateDumb)
	if width == 0 || height == 0 || bpp == 0 {
		return nil, newError(ErrBufferAllocation, op, 0, fmt.Errorf(`invalid buffer geometry %dx%d@%dbpp`, width, height, bpp))
	}
	req := sysCreateDumb{width: width, height: height, bpp: bpp}
	if err := d.k.ioctl(ioctlModeCreateDumb, unsafe.Pointer(&req)); err != nil {
		return nil, newError(ErrBufferAllocation, op, 0, err)
	}
	buf := &DumbBuffer{
		Handle: req.handle,
		Width:  width,
		Height: height,
		BPP:    bpp,
		Pitch:  req.pitch,
		Size:   req.size,
	}
	minPitch := uint64(width) * uint64((bpp+7)/8)
	if uint64(buf.Pitch) < minPitch || buf.Size < uint64(buf.Pitch)*uint64(height) {
		_ = d.DestroyDumbBuffer(buf)
		return nil, newError(ErrBufferAllocation, op, buf.Handle, fmt.Errorf(`driver returned pitch %d size %d for %dx%d`, buf.Pitch, buf.Size, width, height))
	}
	logx.Debug(`created dumb buffer`, d, `handle`, buf.Handle, `width`, width, `height`, height,
		`pitch`, buf.Pitch, `size`, humanize.IBytes(buf.Size))
	return buf, nil
}

// DestroyDumbBuffer releases the kernel memory behind buf.
func (d *Device) DestroyDumbBuffer(buf *DumbBuffer) error {
	if buf == nil {
		return nil
	}
	req := sysDestroyDumb{handle: buf.Handle}
	if err := d.k.ioctl(ioctlModeDestroyDumb, unsafe.Pointer(&req)); err != nil {
		return newError(ErrBufferAllocation, ioctlName(ioctlModeDestroyDumb), buf.Handle, err)
	}
	return nil
}

// AddFrameBuffer registers buf as a framebuffer object. depth is the color
// depth (24 for XRGB8888), distinct from the buffer's bits per pixel.
func (d *Device) AddFrameBuffer(buf *DumbBuffer, depth uint32) (*FrameBuffer, error) {
	op := ioctlName(ioctlModeAddFB)
	if buf == nil {
		return nil, newError(ErrBufferAllocation, op, 0, fmt.Errorf(`nil buffer`))
	}
	cmd := sysFBCmd{
		width:  buf.Width,
		height: buf.Height,
		pitch:  buf.Pitch,
		bpp:    buf.BPP,
		depth:  depth,
		handle: buf.Handle,
	}
	if err := d.k.ioctl(ioctlModeAddFB, unsafe.Pointer(&cmd)); err != nil {
		return nil, newError(ErrBufferAllocation, op, buf.Handle, err)
	}
	logx.Debug(`added framebuffer`, d, `fb`, cmd.fbID, `handle`, buf.Handle, `depth`, depth)
	return &FrameBuffer{ID: cmd.fbID, Depth: depth, Buffer: buf}, nil
}

// RemoveFrameBuffer unregisters fb. The dumb buffer stays allocated.
func (d *Device) RemoveFrameBuffer(fb *FrameBuffer) error {
	if fb == nil {
		return nil
	}
	id := fb.ID
	if err := d.k.ioctl(ioctlModeRmFB, unsafe.Pointer(&id)); err != nil {
		return newError(ErrBufferAllocation, ioctlName(ioctlModeRmFB), fb.ID, err)
	}
	return nil
}

// MapDumbBuffer obtains the fake mmap offset for buf and maps buf.Size bytes
// of it. The mapping is tracked by the device and unmapped at the latest
// when the device closes.
func (d *Device) MapDumbBuffer(buf *DumbBuffer) (*Mapping, error) {
	op := ioctlName(ioctlModeMapDumb)
	if buf == nil {
		return nil, newError(ErrMapping, op, 0, fmt.Errorf(`nil buffer`))
	}
	if buf.Size == 0 || buf.Size > math.MaxInt {
		return nil, newError(ErrMapping, op, buf.Handle, fmt.Errorf(`unmappable size %d`, buf.Size))
	}
	req := sysMapDumb{handle: buf.Handle}
	if err := d.k.ioctl(ioctlModeMapDumb, unsafe.Pointer(&req)); err != nil {
		return nil, newError(ErrMapping, op, buf.Handle, err)
	}
	if req.offset > math.MaxInt64 {
		return nil, newError(ErrMapping, `mmap`, buf.Handle, fmt.Errorf(`offset %d out of range`, req.offset))
	}
	data, err := d.k.mmap(int64(req.offset), int(buf.Size))
	if err != nil {
		return nil, newError(ErrMapping, `mmap`, buf.Handle, err)
	}
	m := &Mapping{dev: d, data: data, offset: req.offset, handle: buf.Handle}
	d.mappings[m] = struct{}{}
	logx.Debug(`mapped dumb buffer`, d, `handle`, buf.Handle, `offset`, req.offset, `size`, humanize.IBytes(buf.Size))
	return m, nil
}

// Bytes returns the mapped memory. It must not be used after Unmap.
func (m *Mapping) Bytes() []byte {
	if m == nil {
		return nil
	}
	return m.data
}

func (m *Mapping) Offset() uint64 { return m.offset }

// Unmap releases the mapping. Further calls do nothing.
func (m *Mapping) Unmap() error {
	if m == nil || m.data == nil {
		return nil
	}
	data := m.data
	m.data = nil
	delete(m.dev.mappings, m)
	if err := m.dev.k.munmap(data); err != nil {
		return newError(ErrMapping, `munmap`, m.handle, err)
	}
	return nil
}
