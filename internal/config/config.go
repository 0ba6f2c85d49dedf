// Package config provides asyncwin's settings.
//
// Settings come from three places, later ones winning: built-in defaults,
// a TOML or YAML file chosen by extension, and ASYNCWIN_* environment
// variables. A running program can follow edits to the file with Watch.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/asyncwin/internal/reactor"
)

// Backend kinds.
const (
	BackendTerminal = "terminal"
	BackendNull     = "null"
)

// Config is the complete asyncwin configuration.
type Config struct {
	Reactor ReactorConfig `toml:"reactor" yaml:"reactor"`
	Backend BackendConfig `toml:"backend" yaml:"backend"`
	Log     LogConfig     `toml:"log" yaml:"log"`
	Script  ScriptConfig  `toml:"script" yaml:"script"`
}

// ReactorConfig sizes the reactor's queues.
type ReactorConfig struct {
	OpQueueCapacity    int `toml:"op_queue_capacity" yaml:"op_queue_capacity"`
	TimerQueueCapacity int `toml:"timer_queue_capacity" yaml:"timer_queue_capacity"`
}

// BackendConfig selects the native loop.
type BackendConfig struct {
	// Kind is "terminal" or "null".
	Kind string `toml:"kind" yaml:"kind"`
	// Width and Height size the window of the null backend.
	Width  uint32 `toml:"width" yaml:"width"`
	Height uint32 `toml:"height" yaml:"height"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// ScriptConfig points at an optional Lua script.
type ScriptConfig struct {
	Path string `toml:"path" yaml:"path"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Reactor: ReactorConfig{
			OpQueueCapacity:    reactor.DefaultOpQueueCapacity,
			TimerQueueCapacity: reactor.DefaultTimerQueueCapacity,
		},
		Backend: BackendConfig{
			Kind:   BackendTerminal,
			Width:  800,
			Height: 600,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.Reactor.OpQueueCapacity <= 0 {
		errs = append(errs, invalid("reactor.op_queue_capacity", c.Reactor.OpQueueCapacity, "must be positive"))
	}
	if c.Reactor.TimerQueueCapacity <= 0 {
		errs = append(errs, invalid("reactor.timer_queue_capacity", c.Reactor.TimerQueueCapacity, "must be positive"))
	}
	switch c.Backend.Kind {
	case BackendTerminal, BackendNull:
	default:
		errs = append(errs, fmt.Errorf("backend.kind %q: %w", c.Backend.Kind, ErrUnknownBackend))
	}
	if c.Backend.Width == 0 || c.Backend.Height == 0 {
		errs = append(errs, invalid("backend.width/height", fmt.Sprintf("%dx%d", c.Backend.Width, c.Backend.Height), "must be non-zero"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, invalid("log.level", c.Log.Level, "want debug, info, warn or error"))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, invalid("log.format", c.Log.Format, "want text or json"))
	}
	return errors.Join(errs...)
}

func invalid(setting string, value any, reason string) error {
	return &ValidationError{Setting: setting, Value: value, Reason: reason}
}
