package main

import (
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"time"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/spf13/cobra"

	"github.com/srlehn/kmsfb/internal"
	"github.com/srlehn/kmsfb/internal/errors"
	"github.com/srlehn/kmsfb/internal/logx"
	"github.com/srlehn/kmsfb/surface"
)

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().DurationVar(&showHoldFlag, `hold`, 5*time.Second, `how long to show the image, 0 waits for an interrupt`)
	showCmd.Flags().StringVar(&showScalerFlag, `scaler`, `approx`, `scaler (nearest, approx, bilinear, catmullrom)`)
}

var showCmd = &cobra.Command{
	Use:   showCmdStr + ` /path/to/image`,
	Short: `display image`,
	Long:  `scale an image (png, jpeg, gif, bmp, webp) onto the display`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(showFunc(args[0]))
	},
}

var (
	showCmdStr     = `show`
	showHoldFlag   time.Duration
	showScalerFlag string
)

var scalers = map[string]draw.Scaler{
	`nearest`:    draw.NearestNeighbor,
	`approx`:     draw.ApproxBiLinear,
	`bilinear`:   draw.BiLinear,
	`catmullrom`: draw.CatmullRom,
}

func showFunc(imgFilename string) sessionFunc {
	return func(ctx context.Context, cl internal.Closer) error {
		scaler, ok := scalers[showScalerFlag]
		if !ok {
			return errors.Errorf(`unknown scaler %q`, showScalerFlag)
		}
		img, err := decodeFile(imgFilename)
		if err != nil {
			return err
		}

		s, err := start(cl)
		if err != nil {
			return err
		}
		s.Painter.Clear(surface.Black)
		err = logx.TimeIt(func() error { return s.DrawImage(img, scaler) }, `drew image`, s,
			`file`, imgFilename, `size`, img.Bounds().Size().String())
		if err != nil {
			return err
		}
		hold(ctx, showHoldFlag)
		return nil
	}
}

func decodeFile(name string) (image.Image, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.New(err)
	}
	defer f.Close()
	img, format, err := image.Decode(f)
	if err != nil {
		return nil, errors.Errorf(`decode %s: %w`, name, err)
	}
	logx.Debug(`decoded image`, logx.Prov(logger), `file`, name, `format`, format)
	return img, nil
}
