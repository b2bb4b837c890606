package mouse_test

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srlehn/kmsfb/input/mouse"
)

func TestDecodeButtons(t *testing.T) {
	ev := mouse.Decode([mouse.RecordSize]byte{0b101, 0, 0})
	assert.True(t, ev.Left())
	assert.False(t, ev.Middle())
	assert.True(t, ev.Right())

	s := mouse.State{}.Apply(ev)
	assert.True(t, s.Left)
	assert.False(t, s.Middle)
	assert.True(t, s.Right)

	s = s.Apply(mouse.Event{Buttons: 0b010})
	assert.Equal(t, mouse.State{Middle: true}, s)
}

func TestDecodeSignedMotion(t *testing.T) {
	ev := mouse.Decode([mouse.RecordSize]byte{0, 0xce, 0x05})
	assert.EqualValues(t, -50, ev.DX)
	assert.EqualValues(t, 5, ev.DY)
}

func TestApplyClamps(t *testing.T) {
	s := mouse.State{X: 10, Y: 10}.Apply(mouse.Event{DX: -50, DY: 5})
	assert.Equal(t, 0, s.X)
	assert.Equal(t, 15, s.Y)

	s = s.Apply(mouse.Event{DX: 3, DY: -128})
	assert.Equal(t, 3, s.X)
	assert.Equal(t, 0, s.Y)
}

func TestRun(t *testing.T) {
	in := bytes.NewReader([]byte{
		0b100, 5, 5,
		0b000, 0xfe, 1, // dx -2
		0b001, 0, 0,
	})
	var seen []mouse.State
	last, err := mouse.Run(in, mouse.State{X: 1, Y: 1}, func(s mouse.State) error {
		seen = append(seen, s)
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, mouse.ErrInputRead)
	assert.ErrorIs(t, err, io.EOF)
	require.Len(t, seen, 3)
	assert.Equal(t, mouse.State{X: 6, Y: 6, Left: true}, seen[0])
	assert.Equal(t, mouse.State{X: 4, Y: 7}, seen[1])
	assert.Equal(t, mouse.State{X: 4, Y: 7, Right: true}, last)
}

func TestRunTruncatedRecord(t *testing.T) {
	in := bytes.NewReader([]byte{0b100, 1, 1, 0b100, 1})
	last, err := mouse.Run(mouse.NewReader(in), mouse.State{}, nil)
	assert.ErrorIs(t, err, mouse.ErrInputRead)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, mouse.State{X: 1, Y: 1, Left: true}, last)
}

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

func TestRunStops(t *testing.T) {
	errBoom := errors.New(`boom`)
	last, err := mouse.Run(failingReader{errBoom}, mouse.State{X: 10, Y: 10}, nil)
	assert.ErrorIs(t, err, mouse.ErrInputRead)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, mouse.State{X: 10, Y: 10}, last)

	errStop := errors.New(`stop`)
	in := bytes.NewReader(bytes.Repeat([]byte{0, 1, 0}, 10))
	last, err = mouse.Run(in, mouse.State{}, func(s mouse.State) error {
		if s.X == 2 {
			return errStop
		}
		return nil
	})
	assert.ErrorIs(t, err, errStop)
	assert.False(t, errors.Is(err, mouse.ErrInputRead))
	assert.Equal(t, 2, last.X)
}

func TestOpenMissing(t *testing.T) {
	_, err := mouse.Open(`/nonexistent/input/mice`)
	assert.ErrorIs(t, err, mouse.ErrInputRead)
}
