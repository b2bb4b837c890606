package drm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/srlehn/kmsfb/surface"
)

func activeConnector(t *testing.T, d *Device) *Connector {
	t.Helper()
	conns, err := d.Connectors()
	require.NoError(t, err)
	require.True(t, conns[0].Usable())
	return conns[0]
}

func TestActivate(t *testing.T) {
	k := newFakeKernel()
	d := openFake(t, k)
	conn := activeConnector(t, d)

	disp, err := d.Activate(conn)
	require.NoError(t, err)
	assert.Equal(t, `100x50`, disp.Mode().Name())
	assert.Equal(t, `100x50 100x50@60`, fmt.Sprint(disp.Mode()))
	assert.EqualValues(t, 31, disp.CrtcID())
	assert.Same(t, conn, disp.Connector())
	assert.Equal(t, disp.FrameBuffer().ID, k.crtcState[31].fbID)
	assert.EqualValues(t, 1, k.crtcState[31].modeValid)

	s := disp.Surface()
	require.NotNil(t, s)
	assert.Equal(t, 100, s.Width())
	assert.Equal(t, 50, s.Height())
	assert.Equal(t, 448, s.Pitch())
	// the fake hands out 0xaa filled memory, activation clears it
	c, err := s.Pixel(99, 49)
	require.NoError(t, err)
	assert.Equal(t, surface.Color{}, c)

	require.NoError(t, s.SetPixel(1, 2, surface.Red))
	var mapped *Mapping
	for m := range d.mappings {
		mapped = m
	}
	require.NotNil(t, mapped)
	assert.Equal(t, []byte{0, 0, 0xff, 0xff}, mapped.Bytes()[2*448+4:2*448+8])

	require.NoError(t, disp.Close())
	assert.Equal(t, []string{
		`DRM_IOCTL_MODE_SETCRTC`,
		`munmap`,
		`DRM_IOCTL_MODE_RMFB`,
		`DRM_IOCTL_MODE_DESTROY_DUMB`,
	}, tail(k, 4))
	// console restored
	assert.EqualValues(t, 7, k.crtcState[31].fbID)
	assert.Equal(t, `1024x768`, k.crtcState[31].mode.Name())
	assert.Empty(t, k.dumbs)
	assert.Equal(t, map[uint32]uint32{7: 0}, k.fbObjs)
	assert.Empty(t, k.maps)

	n := len(k.calls)
	require.NoError(t, disp.Close())
	require.NoError(t, d.Close())
	assert.Equal(t, []string{`close`}, k.calls[n:])
}

func TestActivateModeFallback(t *testing.T) {
	k := newFakeKernel()
	k.setCrtc = func(req *sysCrtc) error {
		if req.fbID != 0 && req.mode.Hdisplay == 100 {
			return unix.EINVAL
		}
		return nil
	}
	d := openFake(t, k)
	disp, err := d.Activate(activeConnector(t, d))
	require.NoError(t, err)
	mode := disp.Mode()
	assert.Equal(t, `64x32`, mode.Name())
	assert.Equal(t, 64, disp.Surface().Width())

	// the refused mode's buffer is gone
	assert.Len(t, k.dumbs, 1)
	assert.Len(t, k.fbObjs, 2)
	assert.Len(t, k.maps, 1)
	assert.Len(t, d.mappings, 1)
}

func TestActivateAllModesRefused(t *testing.T) {
	k := newFakeKernel()
	k.setCrtc = func(req *sysCrtc) error { return unix.EINVAL }
	d := openFake(t, k)
	_, err := d.Activate(activeConnector(t, d))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrActivation)
	assert.ErrorIs(t, err, unix.EINVAL)
	var de *Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, `activate`, de.Op)
	assert.EqualValues(t, 41, de.ID)

	assert.Empty(t, k.dumbs)
	assert.Equal(t, map[uint32]uint32{7: 0}, k.fbObjs)
	assert.Empty(t, k.maps)
	assert.Empty(t, d.mappings)
}

func TestActivateWithoutDumbBuffers(t *testing.T) {
	k := newFakeKernel()
	k.capDumb = 0
	d := openFake(t, k)
	_, err := d.Activate(activeConnector(t, d))
	assert.ErrorIs(t, err, ErrBufferAllocation)
	assert.False(t, errors.Is(err, ErrActivation))
	assert.NotContains(t, k.calls, `DRM_IOCTL_MODE_CREATE_DUMB`)

	// an unanswered capability query is not fatal
	k = newFakeKernel()
	k.capErr = unix.EINVAL
	d = openFake(t, k)
	disp, err := d.Activate(activeConnector(t, d))
	require.NoError(t, err)
	assert.NotNil(t, disp.Surface())
}

func TestActivateUnusable(t *testing.T) {
	k := newFakeKernel()
	d := openFake(t, k)
	conns, err := d.Connectors()
	require.NoError(t, err)
	_, err = d.Activate(conns[1])
	assert.ErrorIs(t, err, ErrActivation)
	_, err = d.Activate(nil)
	assert.ErrorIs(t, err, ErrActivation)
}

func TestDeviceCloseReleasesDisplay(t *testing.T) {
	k := newFakeKernel()
	d, err := newDevice(k, `fake`, SetAcquireMaster(true))
	require.NoError(t, err)
	conns, err := d.Connectors()
	require.NoError(t, err)
	_, err = d.Activate(conns[0])
	require.NoError(t, err)

	require.NoError(t, d.Close())
	assert.Equal(t, []string{
		`DRM_IOCTL_MODE_SETCRTC`,
		`munmap`,
		`DRM_IOCTL_MODE_RMFB`,
		`DRM_IOCTL_MODE_DESTROY_DUMB`,
		`DRM_IOCTL_DROP_MASTER`,
		`close`,
	}, tail(k, 6))
	assert.EqualValues(t, 7, k.crtcState[31].fbID)
}

func TestDisplayRestoreDisablesUnsetCrtc(t *testing.T) {
	k := newFakeKernel()
	k.crtcState[31] = sysCrtc{crtcID: 31}
	d := openFake(t, k)
	disp, err := d.Activate(activeConnector(t, d))
	require.NoError(t, err)
	require.NoError(t, disp.Close())
	assert.Zero(t, k.crtcState[31].fbID)
	assert.Zero(t, k.crtcState[31].modeValid)
}
