package drm

import (
	"bytes"
	"fmt"
	"unicode/utf8"
)

// Mode is a display timing descriptor in the layout of struct drm_mode_modeinfo.
type Mode struct {
	Clock uint32 // pixel clock in kHz

	Hdisplay   uint16
	HsyncStart uint16
	HsyncEnd   uint16
	Htotal     uint16
	Hskew      uint16

	Vdisplay   uint16
	VsyncStart uint16
	VsyncEnd   uint16
	Vtotal     uint16
	Vscan      uint16

	Vrefresh uint32
	Flags    uint32
	Type     uint32

	RawName [DisplayModeLen]byte
}

// mode type bits
const (
	ModeTypePreferred uint32 = 1 << 3
	ModeTypeDriver    uint32 = 1 << 6
	ModeTypeUserdef   uint32 = 1 << 5
)

// Name decodes RawName up to the first NUL. The kernel does not clear the
// bytes behind the terminator, so anything after it is ignored, and invalid
// UTF-8 is dropped.
func (m Mode) Name() string {
	name, _, _ := bytes.Cut(m.RawName[:], []byte{0})
	if utf8.Valid(name) {
		return string(name)
	}
	return string(bytes.ToValidUTF8(name, nil))
}

// Preferred reports whether the driver flagged this mode as preferred.
// The mode choice itself stays "first in list".
func (m Mode) Preferred() bool { return m.Type&ModeTypePreferred != 0 }

func (m Mode) Width() uint32  { return uint32(m.Hdisplay) }
func (m Mode) Height() uint32 { return uint32(m.Vdisplay) }

func (m Mode) String() string {
	return fmt.Sprintf(`%s %dx%d@%d`, m.Name(), m.Hdisplay, m.Vdisplay, m.Vrefresh)
}
