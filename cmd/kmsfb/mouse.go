package main

import (
	"context"
	"io"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/srlehn/kmsfb/input/mouse"
	"github.com/srlehn/kmsfb/internal"
	"github.com/srlehn/kmsfb/internal/consts"
	"github.com/srlehn/kmsfb/internal/errors"
	"github.com/srlehn/kmsfb/internal/logx"
	"github.com/srlehn/kmsfb/surface"
)

func init() {
	rootCmd.AddCommand(mouseCmd)
	mouseCmd.Flags().StringVar(&mouseInputFlag, `input`, consts.MouseDeviceDefault, `mouse device with 3 byte records`)
}

var mouseCmd = &cobra.Command{
	Use:   mouseCmdStr,
	Short: `plot the mouse pointer`,
	Long:  `clear the display and plot a point at every mouse position until interrupted`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		run(mouseFunc)
	},
}

var (
	mouseCmdStr    = `mouse`
	mouseInputFlag string
)

func mouseFunc(ctx context.Context, cl internal.Closer) error {
	in, err := mouse.Open(mouseInputFlag)
	if err != nil {
		return err
	}
	closeIn := sync.OnceValue(in.Close)
	cl.OnClose(closeIn)

	s, err := start(cl)
	if err != nil {
		return err
	}
	s.Painter.Clear(surface.Black)

	// a blocked read returns once the device is closed
	go func() {
		<-ctx.Done()
		_ = closeIn()
	}()

	b := s.Painter.Bounds()
	last, err := mouse.Run(in, mouse.State{X: b.Dx() / 2, Y: b.Dy() / 2}, func(st mouse.State) error {
		x := min(st.X, b.Dx()-1)
		y := min(st.Y, b.Dy()-1)
		return s.Painter.Point(x, y, pointerColor(st))
	})
	return endMouseLoop(ctx, s, last, err)
}

// endMouseLoop logs where the pointer was left. A read failing because of
// the interrupt is a clean exit; end of input and a vanished device are not.
func endMouseLoop(ctx context.Context, p logx.LoggerProvider, last mouse.State, err error) error {
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil && errors.Is(err, mouse.ErrInputRead):
		logx.Debug(`mouse loop interrupted`, p, `x`, last.X, `y`, last.Y)
		return nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, syscall.ENODEV):
		logx.Warn(`mouse input ended`, p, `x`, last.X, `y`, last.Y, `err`, err)
	default:
		logx.Debug(`mouse loop stopped`, p, `x`, last.X, `y`, last.Y)
	}
	return err
}

func pointerColor(st mouse.State) surface.Color {
	switch {
	case st.Left:
		return surface.Red
	case st.Middle:
		return surface.Green
	case st.Right:
		return surface.Blue
	}
	return surface.White
}
