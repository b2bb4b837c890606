package main

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/srlehn/kmsfb"
	"github.com/srlehn/kmsfb/drm"
	"github.com/srlehn/kmsfb/internal"
)

func init() { rootCmd.AddCommand(infoCmd) }

var infoCmd = &cobra.Command{
	Use:   infoCmdStr,
	Short: `list connectors and modes`,
	Long:  `enumerate the device and print its connectors, modes, encoders and CRTCs`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		run(infoFunc(cmd.OutOrStdout()))
	},
}

var infoCmdStr = `info`

func infoFunc(w io.Writer) sessionFunc {
	return func(_ context.Context, cl internal.Closer) error {
		// inspecting needs no master
		dev, err := kmsfb.Open(deviceFlag, append(deviceOptions(), drm.SetAcquireMaster(false))...)
		if err != nil {
			return err
		}
		cl.AddClosers(dev)

		res, err := dev.Resources()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s: %d framebuffers, %d crtcs, %d connectors, %d encoders, size %dx%d to %dx%d\n",
			dev.Path(), len(res.FrameBuffers), len(res.Crtcs), len(res.Connectors), len(res.Encoders),
			res.MinWidth, res.MinHeight, res.MaxWidth, res.MaxHeight)
		if v, err := dev.Capability(drm.CapDumbBuffer); err == nil {
			fmt.Fprintf(w, "dumb buffers: %t\n", v != 0)
		}

		conns, err := dev.Connectors()
		if err != nil {
			return err
		}
		for _, conn := range conns {
			printConnector(w, dev, conn)
		}
		return nil
	}
}

func printConnector(w io.Writer, dev *drm.Device, conn *drm.Connector) {
	fmt.Fprintf(w, "\nconnector %d %s: %s, %dx%d mm\n",
		conn.ID, conn.Name(), conn.Connection, conn.MMWidth, conn.MMHeight)
	if conn.Encoder != nil {
		fmt.Fprintf(w, "  encoder %d, possible crtcs %#b\n", conn.Encoder.ID, conn.Encoder.PossibleCrtcs)
	}
	if conn.CrtcID != 0 {
		if crtc, err := dev.Crtc(conn.CrtcID); err == nil {
			current := `off`
			if crtc.ModeValid {
				current = crtc.Mode.String()
			}
			fmt.Fprintf(w, "  crtc %d, fb %d, %s\n", crtc.ID, crtc.BufferID, current)
		}
	}
	for i := range conn.Modes {
		m := &conn.Modes[i]
		mark := ` `
		if i == 0 {
			mark = `*`
		}
		pref := ``
		if m.Preferred() {
			pref = ` preferred`
		}
		fb := uint64(m.Width()) * uint64(m.Height()) * 4
		fmt.Fprintf(w, "  %s %-12s %4dx%-4d %3d Hz %7.2f MHz, buffer >= %s%s\n",
			mark, m.Name(), m.Hdisplay, m.Vdisplay, m.Vrefresh, float64(m.Clock)/1000, humanize.IBytes(fb), pref)
	}
}
