// Package mouse decodes the 3 byte records of a PS/2 style mouse device such
// as /dev/input/mice and accumulates them into a pointer position.
package mouse

import (
	"errors"
	"fmt"
	"io"
	"os"

	errorsInt "github.com/srlehn/kmsfb/internal/errors"
)

// RecordSize is the length of one mouse record.
const RecordSize = 3

var ErrInputRead = errors.New(`mouse input read failed`)

// button bits of the first record byte
const (
	buttonRight  uint8 = 1 << 0
	buttonMiddle uint8 = 1 << 1
	buttonLeft   uint8 = 1 << 2
)

// Event is one decoded record: the button byte and a relative motion.
type Event struct {
	Buttons uint8
	DX, DY  int8
}

// Decode interprets a record. The motion bytes are two's complement.
func Decode(rec [RecordSize]byte) Event {
	return Event{Buttons: rec[0], DX: int8(rec[1]), DY: int8(rec[2])}
}

func (e Event) Left() bool   { return e.Buttons&buttonLeft != 0 }
func (e Event) Middle() bool { return e.Buttons&buttonMiddle != 0 }
func (e Event) Right() bool  { return e.Buttons&buttonRight != 0 }

func (e Event) String() string {
	return fmt.Sprintf(`buttons=%03b dx=%d dy=%d`, e.Buttons, e.DX, e.DY)
}

// State is the accumulated pointer. X and Y never go below 0; there is no
// upper bound, callers clip to their surface.
type State struct {
	X, Y                int
	Left, Middle, Right bool
}

// Apply adds the motion of ev and takes over its buttons.
func (s State) Apply(ev Event) State {
	s.X = max(s.X+int(ev.DX), 0)
	s.Y = max(s.Y+int(ev.DY), 0)
	s.Left = ev.Left()
	s.Middle = ev.Middle()
	s.Right = ev.Right()
	return s
}

// Reader reads whole records from an underlying stream.
type Reader struct {
	r   io.Reader
	rec [RecordSize]byte
}

func NewReader(r io.Reader) *Reader { return &Reader{r: r} }

// Open opens a mouse device read-only.
func Open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errorsInt.New(fmt.Errorf(`%w: %w`, ErrInputRead, err))
	}
	return f, nil
}

// ReadEvent blocks until a full record is read.
func (r *Reader) ReadEvent() (Event, error) {
	if r == nil || r.r == nil {
		return Event{}, errorsInt.NilReceiver()
	}
	if _, err := io.ReadFull(r.r, r.rec[:]); err != nil {
		return Event{}, errorsInt.New(fmt.Errorf(`%w: %w`, ErrInputRead, err))
	}
	return Decode(r.rec), nil
}

// Run reads records from r until reading fails or fn returns an error, and
// passes every updated state to fn. It returns the last state. A read failure
// (including end of input) is reported as an error wrapping ErrInputRead.
func Run(r io.Reader, state State, fn func(State) error) (State, error) {
	rd, ok := r.(*Reader)
	if !ok {
		rd = NewReader(r)
	}
	for {
		ev, err := rd.ReadEvent()
		if err != nil {
			return state, err
		}
		state = state.Apply(ev)
		if fn == nil {
			continue
		}
		if err := fn(state); err != nil {
			return state, err
		}
	}
}

var _ io.Reader = (*Reader)(nil)

// Read passes through to the underlying stream, so a Reader can be handed
// to Run directly.
func (r *Reader) Read(p []byte) (int, error) {
	if r == nil || r.r == nil {
		return 0, errorsInt.NilReceiver()
	}
	return r.r.Read(p)
}
