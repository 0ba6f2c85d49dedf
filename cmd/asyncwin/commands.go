package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/asyncwin/internal/app"
	"github.com/dshills/asyncwin/internal/logging"
	"github.com/dshills/asyncwin/internal/native"
	"github.com/dshills/asyncwin/internal/script"
)

func newRunCmd(flags *rootFlags, code *int) *cobra.Command {
	var scriptPath string
	var title string
	var watch bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open a window and run the event loop",
		Long: `Open a window on the configured backend and run the event loop until the
window is closed, the script calls exit, or the process is interrupted.`,
		Example: `  asyncwin run
  asyncwin run --backend null --script demo.lua
  asyncwin run -c asyncwin.yaml --watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if scriptPath != "" {
				cfg.Script.Path = scriptPath
			}

			log, closeLog, err := newLogger(cfg, flags)
			if err != nil {
				return err
			}
			defer closeLog()

			el, err := newEventLoop(cfg, log)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			attrs := native.DefaultWindowAttributes()
			attrs.Title = title
			attrs.InnerSize = &native.PhysicalSize{Width: cfg.Backend.Width, Height: cfg.Backend.Height}

			*code, err = el.Run(ctx, func(ctx context.Context) error {
				g, ctx := errgroup.WithContext(ctx)
				ctx, done := context.WithCancel(ctx)
				defer done()

				if watch {
					g.Go(func() error {
						return followConfig(ctx, flags.configPath, log)
					})
				}
				g.Go(func() error {
					defer done()
					return runWindow(ctx, el, attrs, cfg.Script.Path, log)
				})
				return g.Wait()
			})

			snap := el.Metrics().Snapshot()
			log.Debug("loop ran %d iterations, %d ops, %d timers, %d events",
				snap.Iterations, snap.OpsRun, snap.TimersFired, snap.EventCount)

			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&scriptPath, "script", "s", "", "Lua script to run against the window")
	cmd.Flags().StringVar(&title, "title", "asyncwin", "Window title")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Follow log level changes in the config file")
	return cmd
}

// runWindow opens the window, runs the script if there is one, and then
// waits for the window to be closed.
func runWindow(ctx context.Context, el *app.EventLoop, attrs native.WindowAttributes, scriptPath string, log *logging.Logger) error {
	w, err := el.CreateWindow(ctx, attrs)
	if err != nil {
		return fmt.Errorf("creating window: %w", err)
	}
	log.Info("window %s open", w.ID())

	closeReq := w.Events().CloseRequested.Subscribe()
	defer closeReq.Close()

	if scriptPath != "" {
		e := script.New(el, script.WithWindow(w), script.WithLogger(log.WithComponent("script")))
		defer e.Close()
		if err := e.RunFile(ctx, scriptPath); err != nil {
			return err
		}
	}

	if _, err := closeReq.Next(ctx); err != nil {
		return err
	}
	log.Info("window %s close requested", w.ID())
	el.Exit(0)
	<-ctx.Done()
	return nil
}

func newMonitorsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "monitors",
		Short: "List the monitors the backend reports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			log, closeLog, err := newLogger(cfg, flags)
			if err != nil {
				return err
			}
			defer closeLog()

			el, err := newEventLoop(cfg, log)
			if err != nil {
				return err
			}

			var monitors []native.Monitor
			_, err = el.Run(cmd.Context(), func(ctx context.Context) error {
				var err error
				monitors, err = el.AvailableMonitors(ctx)
				return err
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, m := range monitors {
				fmt.Fprintf(out, "%s\t%s\tat %d,%d\tscale %.2f\t%.3f Hz\n",
					m.Name, m.Size, m.Position.X, m.Position.Y,
					m.ScaleFactor, float64(m.RefreshRateMillihertz)/1000)
			}
			return nil
		},
	}
}

func newConfigCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			enc := toml.NewEncoder(cmd.OutOrStdout())
			return enc.Encode(cfg)
		},
	}
}
