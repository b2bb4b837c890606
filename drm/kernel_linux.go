//go:build linux

package drm

import (
	"errors"
	"os"
	"runtime"
	"unsafe"

	drmlib "github.com/NeowayLabs/drm"
	"github.com/NeowayLabs/drm/ioctl"
	"golang.org/x/sys/unix"
)

var _ kernel = (*fileKernel)(nil)

type fileKernel struct {
	file *os.File
}

func openKernel(path string) (kernel, error) {
	file, err := os.OpenFile(path, os.O_RDWR|unix.O_CLOEXEC, os.ModeDevice)
	if err != nil {
		return nil, err
	}
	return &fileKernel{file: file}, nil
}

// ioctl restarts interrupted calls the way libdrm's drmIoctl does.
func (k *fileKernel) ioctl(req uintptr, arg unsafe.Pointer) error {
	defer runtime.KeepAlive(arg)
	for {
		err := ioctl.Do(k.file.Fd(), req, uintptr(arg))
		switch {
		case err == nil:
			return nil
		case errors.Is(err, unix.EINTR), errors.Is(err, unix.EAGAIN):
			continue
		default:
			return os.NewSyscallError(`ioctl`, err)
		}
	}
}

func (k *fileKernel) capability(id uint64) (uint64, error) {
	v, err := drmlib.GetCap(k.file, id)
	if err != nil {
		return 0, os.NewSyscallError(`ioctl`, err)
	}
	return v, nil
}

func (k *fileKernel) mmap(offset int64, length int) ([]byte, error) {
	b, err := unix.Mmap(int(k.file.Fd()), offset, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, os.NewSyscallError(`mmap`, err)
	}
	return b, nil
}

func (k *fileKernel) munmap(b []byte) error {
	if err := unix.Munmap(b); err != nil {
		return os.NewSyscallError(`munmap`, err)
	}
	return nil
}

func (k *fileKernel) fd() uintptr { return k.file.Fd() }

func (k *fileKernel) close() error { return k.file.Close() }
