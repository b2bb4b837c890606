package drm

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/srlehn/kmsfb/internal/logx"
)

type ConnectionStatus uint32

const (
	Connected         ConnectionStatus = 1
	Disconnected      ConnectionStatus = 2
	UnknownConnection ConnectionStatus = 3
)

func (c ConnectionStatus) String() string {
	switch c {
	case Connected:
		return `connected`
	case Disconnected:
		return `disconnected`
	case UnknownConnection:
		return `unknown`
	}
	return fmt.Sprintf(`status(%d)`, uint32(c))
}

// names as printed by the kernel (drm_connector_enum_list)
var connectorTypeNames = []string{
	`Unknown`, `VGA`, `DVI-I`, `DVI-D`, `DVI-A`, `Composite`, `SVIDEO`, `LVDS`,
	`Component`, `DIN`, `DP`, `HDMI-A`, `HDMI-B`, `TV`, `eDP`, `Virtual`, `DSI`,
	`DPI`, `Writeback`, `SPI`, `USB`,
}

// Connector is a physical display output.
type Connector struct {
	ID         uint32
	EncoderID  uint32 // currently bound encoder, 0 if none
	Type       uint32
	TypeID     uint32
	Connection ConnectionStatus
	MMWidth    uint32
	MMHeight   uint32
	Subpixel   uint32

	Modes      []Mode
	Props      []uint32
	PropValues []uint64
	Encoders   []uint32

	// set by Device.Connectors
	Encoder *Encoder
	CrtcID  uint32
}

// Name returns the kernel style connector name, e.g. HDMI-A-1.
func (c *Connector) Name() string {
	if c == nil {
		return ``
	}
	typ := `Unknown`
	if int(c.Type) < len(connectorTypeNames) {
		typ = connectorTypeNames[c.Type]
	}
	return fmt.Sprintf(`%s-%d`, typ, c.TypeID)
}

// Mode returns the operating mode: the first one the kernel lists.
func (c *Connector) Mode() (Mode, bool) {
	if c == nil || len(c.Modes) == 0 {
		return Mode{}, false
	}
	return c.Modes[0], true
}

// Usable reports whether the connector can be activated.
func (c *Connector) Usable() bool {
	return c != nil && c.Connection == Connected && len(c.Modes) > 0 && c.CrtcID != 0
}

// Encoder converts the pipeline's pixel stream to a connector's signal.
type Encoder struct {
	ID             uint32
	Type           uint32
	CrtcID         uint32
	PossibleCrtcs  uint32
	PossibleClones uint32
}

// Crtc is a display pipeline controller.
type Crtc struct {
	ID        uint32
	BufferID  uint32 // bound framebuffer, 0 if none
	X, Y      uint32
	GammaSize uint32
	ModeValid bool
	Mode      Mode
}

// Connector queries one connector with the two-phase pattern: counts first,
// then modes, properties and encoders into arrays of exactly that length.
func (d *Device) Connector(id uint32) (*Connector, error) {
	op := ioctlName(ioctlModeGetConnector)
	for attempt := 0; ; attempt++ {
		conn := sysGetConnector{connectorID: id}
		if err := d.k.ioctl(ioctlModeGetConnector, unsafe.Pointer(&conn)); err != nil {
			return nil, newError(ErrResourceQuery, op, id, err)
		}
		counts := conn

		ret := &Connector{
			Modes:      make([]Mode, counts.countModes),
			Props:      make([]uint32, counts.countProps),
			PropValues: make([]uint64, counts.countProps),
			Encoders:   make([]uint32, counts.countEncoders),
		}
		var pin runtime.Pinner
		conn.modesPtr = pinnedPtr(&pin, ret.Modes)
		conn.propsPtr = pinnedPtr(&pin, ret.Props)
		conn.propValuesPtr = pinnedPtr(&pin, ret.PropValues)
		conn.encodersPtr = pinnedPtr(&pin, ret.Encoders)
		err := d.k.ioctl(ioctlModeGetConnector, unsafe.Pointer(&conn))
		pin.Unpin()
		if err != nil {
			return nil, newError(ErrResourceQuery, op, id, err)
		}

		if conn.countModes != counts.countModes || conn.countProps != counts.countProps ||
			conn.countEncoders != counts.countEncoders {
			if attempt < d.retries {
				logx.Debug(`connector counts changed between queries, retrying`, d, `connector`, id, `attempt`, attempt+1)
				continue
			}
			return nil, newError(ErrResourceQuery, op, id, fmt.Errorf(`connector counts unstable after %d attempts`, attempt+1))
		}

		ret.ID = conn.connectorID
		ret.EncoderID = conn.encoderID
		ret.Type = conn.connectorType
		ret.TypeID = conn.connectorTypeID
		ret.Connection = ConnectionStatus(conn.connection)
		ret.MMWidth = conn.mmWidth
		ret.MMHeight = conn.mmHeight
		ret.Subpixel = conn.subpixel

		logx.Debug(`inspected connector`, d, `connector`, ret.Name(), `id`, id,
			`status`, ret.Connection, `modes`, len(ret.Modes), `props`, len(ret.Props), `encoders`, len(ret.Encoders))
		for i := range ret.Modes {
			logx.Debug(`mode`, d, `connector`, id, `index`, i, `mode`, ret.Modes[i].String())
		}
		return ret, nil
	}
}

// Encoder queries an encoder. The record has no variable length part.
func (d *Device) Encoder(id uint32) (*Encoder, error) {
	enc := sysGetEncoder{encoderID: id}
	if err := d.k.ioctl(ioctlModeGetEncoder, unsafe.Pointer(&enc)); err != nil {
		return nil, newError(ErrResourceQuery, ioctlName(ioctlModeGetEncoder), id, err)
	}
	logx.Debug(`inspected encoder`, d, `encoder`, id, `crtc`, enc.crtcID)
	return &Encoder{
		ID:             enc.encoderID,
		Type:           enc.encoderType,
		CrtcID:         enc.crtcID,
		PossibleCrtcs:  enc.possibleCrtcs,
		PossibleClones: enc.possibleClones,
	}, nil
}

// Crtc queries the current state of a CRTC.
func (d *Device) Crtc(id uint32) (*Crtc, error) {
	crtc := sysCrtc{crtcID: id}
	if err := d.k.ioctl(ioctlModeGetCrtc, unsafe.Pointer(&crtc)); err != nil {
		return nil, newError(ErrResourceQuery, ioctlName(ioctlModeGetCrtc), id, err)
	}
	logx.Debug(`inspected crtc`, d, `crtc`, id, `fb`, crtc.fbID, `mode_valid`, crtc.modeValid)
	return &Crtc{
		ID:        crtc.crtcID,
		BufferID:  crtc.fbID,
		X:         crtc.x,
		Y:         crtc.y,
		GammaSize: crtc.gammaSize,
		ModeValid: crtc.modeValid != 0,
		Mode:      crtc.mode,
	}, nil
}

// Connectors enumerates the device and inspects every connector, its bound
// encoder, and that encoder's CRTC. Connectors without a bound encoder or
// CRTC get the first free CRTC one of their encoders can drive.
func (d *Device) Connectors() ([]*Connector, error) {
	res, err := d.Resources()
	if err != nil {
		return nil, err
	}
	taken := make(map[uint32]bool)
	conns := make([]*Connector, 0, len(res.Connectors))
	for _, id := range res.Connectors {
		conn, err := d.Connector(id)
		if err != nil {
			return nil, err
		}
		conns = append(conns, conn)
		if conn.Connection != Connected || len(conn.Modes) == 0 {
			logx.Debug(`skipping connector for activation`, d, `connector`, conn.Name(), `status`, conn.Connection, `modes`, len(conn.Modes))
			continue
		}
		if err := d.resolveCrtc(res, conn, taken); err != nil {
			return nil, err
		}
		if conn.CrtcID != 0 {
			taken[conn.CrtcID] = true
		}
	}
	return conns, nil
}

func (d *Device) resolveCrtc(res *Resources, conn *Connector, taken map[uint32]bool) error {
	if conn.EncoderID != 0 {
		enc, err := d.Encoder(conn.EncoderID)
		if err != nil {
			return err
		}
		conn.Encoder = enc
		if enc.CrtcID != 0 && !taken[enc.CrtcID] {
			conn.CrtcID = enc.CrtcID
			return nil
		}
	}
	for _, encID := range conn.Encoders {
		enc, err := d.Encoder(encID)
		if err != nil {
			return err
		}
		// bit i of PossibleCrtcs stands for res.Crtcs[i]
		for i, crtcID := range res.Crtcs {
			if i >= 32 || enc.PossibleCrtcs&(1<<uint(i)) == 0 || taken[crtcID] {
				continue
			}
			conn.Encoder = enc
			conn.CrtcID = crtcID
			return nil
		}
	}
	logx.Warn(`no crtc available for connector`, d, `connector`, conn.Name())
	return nil
}
