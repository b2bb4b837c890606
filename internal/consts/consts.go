package consts

import (
	"errors"
)

var ErrPlatformNotSupported = errors.New(`platform not supported`)

const (
	DRMDeviceDefault   = `/dev/dri/card0`
	MouseDeviceDefault = `/dev/input/mice`

	// EnvDevice overrides DRMDeviceDefault
	EnvDevice = `KMSFB_DEVICE`
)
