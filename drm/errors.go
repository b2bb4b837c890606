package drm

import (
	"errors"
	"fmt"

	errorsInt "github.com/srlehn/kmsfb/internal/errors"
)

// Failure kinds. Match them with errors.Is.
var (
	ErrDeviceOpen       = errors.New(`device open failed`)
	ErrResourceQuery    = errors.New(`resource query failed`)
	ErrBufferAllocation = errors.New(`buffer allocation failed`)
	ErrMapping          = errors.New(`mapping failed`)
	ErrActivation       = errors.New(`activation failed`)
)

// Error attributes a failure to the single ioctl or mapping call that produced it.
type Error struct {
	Kind error  // one of the Err* kinds above
	Op   string // ioctl name, `open`, `mmap`, ...
	ID   uint32 // object id the call addressed, 0 if none
	Err  error  // errno or other cause
}

func (e *Error) Error() string {
	if e == nil {
		return `<nil>`
	}
	msg := `drm: ` + e.Kind.Error() + `: ` + e.Op
	if e.ID != 0 {
		msg += fmt.Sprintf(` (id %d)`, e.ID)
	}
	if e.Err != nil {
		msg += `: ` + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause, so errors.Is works for
// ErrMapping as well as for unix.EACCES.
func (e *Error) Unwrap() []error {
	if e == nil {
		return nil
	}
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, op string, id uint32, err error) error {
	return errorsInt.Wrap(&Error{Kind: kind, Op: op, ID: id, Err: err}, 1)
}
