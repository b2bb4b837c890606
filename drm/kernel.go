package drm

import "unsafe"

// kernel is the system call surface a Device talks through. The file based
// implementation issues real ioctls; tests substitute an in-memory one.
type kernel interface {
	// ioctl issues req with arg pointing at the request record. The pointer
	// is only valid for the duration of the call.
	ioctl(req uintptr, arg unsafe.Pointer) error
	// capability returns the DRM_CAP_* value id.
	capability(id uint64) (uint64, error)
	mmap(offset int64, length int) ([]byte, error)
	munmap(b []byte) error
	fd() uintptr
	close() error
}
