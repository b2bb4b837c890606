package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/srlehn/kmsfb"
	"github.com/srlehn/kmsfb/drm"
	"github.com/srlehn/kmsfb/internal"
	"github.com/srlehn/kmsfb/internal/errors"
	"github.com/srlehn/kmsfb/internal/linux"
	"github.com/srlehn/kmsfb/internal/logx"
)

var rootCmd = &cobra.Command{
	Use:               filepath.Base(os.Args[0]),
	Short:             "kmsfb draws on KMS displays",
	Long:              "kmsfb draws on Linux kernel mode-setting displays through a mapped dumb buffer",
	SilenceUsage:      true,
	SilenceErrors:     true,
	TraverseChildren:  true,
	PersistentPreRunE: setupLogger,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
		os.Exit(1)
	},
}

func init() {
	cobra.EnablePrefixMatching = true
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&debugFlag, `debug`, `d`, false, `debug errors`)
	pf.BoolVarP(&silentFlag, `silent`, `s`, false, `silence errors`)
	pf.StringVarP(&logFileFlag, `log-file`, `l`, ``, `log file`)
	pf.StringVar(&logLevelFlag, `log-level`, `warn`, `log level (debug, info, warn, error)`)
	pf.StringVar(&deviceFlag, `device`, kmsfb.DefaultDevicePath(), `DRM device node`)
	pf.BoolVar(&graphicsVTFlag, `graphics-vt`, false, `switch the console to graphics mode while drawing`)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	debugFlag      bool
	silentFlag     bool
	logFileFlag    string
	logLevelFlag   string
	deviceFlag     string
	graphicsVTFlag bool

	logger  *slog.Logger
	logFile io.Closer
)

func setupLogger(cmd *cobra.Command, args []string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(logLevelFlag)); err != nil {
		return errors.New(err)
	}
	if debugFlag {
		lvl = slog.LevelDebug
	}
	var w io.Writer = os.Stderr
	if len(logFileFlag) > 0 {
		f, err := os.OpenFile(logFileFlag, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
		if err != nil {
			return errors.New(err)
		}
		w = f
		logFile = f
	}
	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{AddSource: debugFlag, Level: lvl}))
	return nil
}

func deviceOptions() []drm.Option {
	return []drm.Option{drm.SetLogger(logger)}
}

// sessionFunc does the work of a subcommand. Teardown it needs is registered
// on cl and runs after it returns, even on panic.
type sessionFunc func(ctx context.Context, cl internal.Closer) error

func run(fn sessionFunc) {
	var err error
	if fn == nil {
		err = errors.NilParam()
	}
	cl, root := newRunCloser()
	var exitCode int
	defer func() {
		// catch panics so the console and CRTC are restored
		if r := recover(); r != nil {
			exitCode = 1
			if !silentFlag {
				if stackFramer, ok := r.(interface{ ErrorStack() string }); ok {
					fmt.Fprintln(os.Stderr, "\n"+stackFramer.ErrorStack())
				} else {
					fmt.Fprintln(os.Stderr, r)
					debug.PrintStack()
				}
			}
		}
		if errClose := root.Close(); errClose != nil {
			exitCode = 1
		}
		os.Exit(exitCode)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cl.OnClose(func() error { stop(); return nil })

	if err == nil {
		err = fn(ctx, cl)
	}
	if err != nil {
		logx.IsErr(err, logx.Prov(logger), slog.LevelError)
		exitCode = 1
		if !silentFlag {
			if stackFramer, ok := err.(interface{ ErrorStack() string }); debugFlag && ok {
				fmt.Fprintln(os.Stderr, "\n"+stackFramer.ErrorStack())
			} else {
				fmt.Fprintln(os.Stderr, "\n"+err.Error())
			}
		}
	}
}

// newRunCloser returns the closer sessions register on and the root closer
// that releases it. Errors from the session teardown are logged before the
// log file is closed.
func newRunCloser() (session, root internal.Closer) {
	root = internal.NewCloser()
	if logFile != nil {
		root.AddClosers(logFile)
	}
	session = internal.NewCloser()
	root.OnClose(func() error {
		err := session.Close()
		logx.IsErr(err, logx.Prov(logger), slog.LevelError)
		return err
	})
	return session, root
}

// start switches the console to graphics mode when asked to and activates
// the display. The console is restored after the display is released.
func start(cl internal.Closer) (*kmsfb.Session, error) {
	if graphicsVTFlag {
		restore, err := linux.GraphicsVT(os.Stdin.Fd())
		if err != nil {
			logx.Warn(`could not switch console to graphics mode`, logx.Prov(logger), `err`, err)
		}
		cl.OnClose(restore)
	}
	s, err := kmsfb.Start(deviceFlag, deviceOptions()...)
	if err != nil {
		return nil, err
	}
	cl.AddClosers(s)
	return s, nil
}

// hold blocks for d, or until interrupted if d is 0.
func hold(ctx context.Context, d time.Duration) {
	if d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	<-ctx.Done()
}
