package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dshills/asyncwin/internal/app"
	"github.com/dshills/asyncwin/internal/backend"
	"github.com/dshills/asyncwin/internal/config"
	"github.com/dshills/asyncwin/internal/logging"
	"github.com/dshills/asyncwin/internal/native"
	"github.com/dshills/asyncwin/internal/reactor"
)

// loadConfig reads the configuration file and applies command-line
// overrides on top of it.
func loadConfig(flags *rootFlags) (config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return cfg, err
	}
	if flags.backend != "" {
		cfg.Backend.Kind = flags.backend
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	return cfg, cfg.Validate()
}

// newLogger builds the process logger. The terminal backend owns the
// screen, so without a log file its logs are discarded.
func newLogger(cfg config.Config, flags *rootFlags) (*logging.Logger, func(), error) {
	var out io.Writer = os.Stderr
	closeFn := func() {}

	switch {
	case flags.logFile != "":
		f, err := os.OpenFile(flags.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		out = f
		closeFn = func() { _ = f.Close() }
	case cfg.Backend.Kind == config.BackendTerminal:
		out = io.Discard
	}

	log := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Output: out,
		Format: cfg.Log.Format,
	})
	logging.SetDefault(log)
	return log, closeFn, nil
}

// newEventLoop builds the configured backend and the reactor driving it.
func newEventLoop(cfg config.Config, log *logging.Logger) (*app.EventLoop, error) {
	var loop native.Loop
	switch cfg.Backend.Kind {
	case config.BackendNull:
		n, err := backend.NewNull(backend.WithNullLogger(log.WithComponent("backend")))
		if err != nil {
			return nil, err
		}
		loop = n
	default:
		t, err := backend.NewTerminal(backend.WithTerminalLogger(log.WithComponent("backend")))
		if err != nil {
			return nil, err
		}
		loop = t
	}

	r := reactor.New(
		reactor.WithLogger(log.WithComponent("reactor")),
		reactor.WithOpQueueCapacity(cfg.Reactor.OpQueueCapacity),
		reactor.WithTimerQueueCapacity(cfg.Reactor.TimerQueueCapacity),
	)
	return app.NewEventLoop(loop, r,
		app.WithLogger(log.WithComponent("app")),
		app.WithMetrics(app.NewMetrics()),
	), nil
}

// followConfig applies log level changes from the configuration file
// until ctx is done.
func followConfig(ctx context.Context, path string, log *logging.Logger) error {
	return config.Watch(ctx, path, func(cfg config.Config, err error) {
		if err != nil {
			log.Warn("config reload failed: %v", err)
			return
		}
		level := logging.ParseLevel(cfg.Log.Level)
		if level != log.Level() {
			log.Info("log level changed to %s", level)
			log.SetLevel(level)
		}
	})
}
