//go:build linux

package linux

import (
	"golang.org/x/sys/unix"

	"github.com/srlehn/kmsfb/internal/errors"
)

const (
	kdSetMode uint = 0x4b3a
	kdGetMode uint = 0x4b3b
)

func KDGetMode(fd uintptr) (mode KDMode, isLinuxConsole bool, _ error) {
	m, err := unix.IoctlGetInt(int(fd), kdGetMode)
	mode = KDMode(m)
	if err == nil {
		return mode, true, nil
	}
	if errors.Is(err, unix.ENOTTY) || errors.Is(err, unix.EINVAL) {
		return -1, false, nil
	}
	return -1, false, errors.New(err)
}

// KDSetMode switches the virtual terminal behind fd to mode. For KDGraphics
// the kernel console stops drawing text and the cursor over the scan-out buffer.
func KDSetMode(fd uintptr, mode KDMode) error {
	// KDSETMODE takes the mode by value, not through a pointer
	if err := unix.IoctlSetInt(int(fd), kdSetMode, int(mode)); err != nil {
		return errors.New(err)
	}
	return nil
}
