//go:build !linux

package drm

import (
	"github.com/srlehn/kmsfb/internal/consts"
)

func openKernel(path string) (kernel, error) {
	return nil, consts.ErrPlatformNotSupported
}
