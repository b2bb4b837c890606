package main

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/srlehn/kmsfb/compositor"
	"github.com/srlehn/kmsfb/internal"
	"github.com/srlehn/kmsfb/internal/errors"
	"github.com/srlehn/kmsfb/surface"
)

func init() {
	rootCmd.AddCommand(composeCmd)
	composeCmd.Flags().StringArrayVarP(&composeWindowsFlag, `window`, `w`, nil, `window as <x>,<y>,<w>,<h> (repeatable)`)
	composeCmd.Flags().DurationVar(&composeHoldFlag, `hold`, 5*time.Second, `how long to show the result, 0 waits for an interrupt`)
	composeCmd.Flags().IntVar(&composeBarFlag, `bar`, compositor.DefaultBarHeight, `title bar height`)
}

var composeCmd = &cobra.Command{
	Use:   composeCmdStr,
	Short: `draw window frames`,
	Long:  `activate the first usable connector, clear it and draw a frame for every window`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		run(composeFunc)
	},
}

var (
	composeCmdStr      = `compose`
	composeWindowsFlag []string
	composeHoldFlag    time.Duration
	composeBarFlag     int
)

// dark blue, so the white frames stand out
var composeBackground = surface.RGBA(0x10, 0x20, 0x40, 0xff)

func composeFunc(ctx context.Context, cl internal.Closer) error {
	// parse before touching the display
	windows := make([]compositor.Window, 0, len(composeWindowsFlag))
	for _, arg := range composeWindowsFlag {
		w, err := splitWindowArg(arg)
		if err != nil {
			return err
		}
		windows = append(windows, w)
	}

	s, err := start(cl)
	if err != nil {
		return err
	}
	s.Painter.Clear(composeBackground)

	c, err := compositor.New(s.Painter, compositor.SetBarHeight(composeBarFlag), compositor.SetLogger(logger))
	if err != nil {
		return err
	}
	if len(windows) == 0 {
		c.AddDefaultWindow()
	}
	for _, w := range windows {
		if err := c.AddWindow(w.X, w.Y, w.Width, w.Height); err != nil {
			return err
		}
	}
	c.Render()
	hold(ctx, composeHoldFlag)
	return nil
}

func splitWindowArg(arg string) (compositor.Window, error) {
	parts := strings.Split(arg, `,`)
	if len(parts) != 4 {
		return compositor.Window{}, errors.Errorf(`window %q not "<x>,<y>,<w>,<h>"`, arg)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return compositor.Window{}, errors.Errorf(`window %q: %w`, arg, err)
		}
		v[i] = n
	}
	if v[2] <= 0 || v[3] <= 0 {
		return compositor.Window{}, errors.Errorf(`window %q: size must be positive`, arg)
	}
	return compositor.Window{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
}
