//go:build !linux

package linux

import (
	"github.com/srlehn/kmsfb/internal/consts"
	"github.com/srlehn/kmsfb/internal/errors"
)

func KDGetMode(fd uintptr) (mode KDMode, isLinuxConsole bool, _ error) {
	return -1, false, errors.New(consts.ErrPlatformNotSupported)
}

func KDSetMode(fd uintptr, mode KDMode) error {
	return errors.New(consts.ErrPlatformNotSupported)
}
