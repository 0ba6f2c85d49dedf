package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is a configuration file syntax.
type Format int

const (
	FormatTOML Format = iota
	FormatYAML
)

// String returns the format name.
func (f Format) String() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "toml"
}

// FormatFor picks the format from the file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
}

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ASYNCWIN_"

// Load reads the file at path over the defaults, applies environment
// overrides and validates the result. An empty path or a missing file
// yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("reading config file %s: %w", path, err)
		default:
			format, err := FormatFor(path)
			if err != nil {
				return cfg, err
			}
			if err := decode(path, bytes.NewReader(data), format, &cfg); err != nil {
				return cfg, err
			}
		}
	}

	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Parse decodes r over the defaults without consulting the environment.
func Parse(r io.Reader, format Format) (Config, error) {
	cfg := Default()
	if err := decode("<reader>", r, format, &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// decode rejects unknown keys so typos surface instead of silently
// keeping a default.
func decode(source string, r io.Reader, format Format, cfg *Config) error {
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return &ParseError{Path: source, Message: err.Error(), Err: err}
		}
	default:
		dec := toml.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			perr := &ParseError{Path: source, Message: err.Error(), Err: err}
			var derr *toml.DecodeError
			if errors.As(err, &derr) {
				perr.Line, perr.Column = derr.Position()
			}
			return perr
		}
	}
	return nil
}

// envOverrides maps environment variables to the settings they replace.
var envOverrides = map[string]func(*Config, string) error{
	EnvPrefix + "LOG_LEVEL": func(c *Config, v string) error {
		c.Log.Level = v
		return nil
	},
	EnvPrefix + "LOG_FORMAT": func(c *Config, v string) error {
		c.Log.Format = v
		return nil
	},
	EnvPrefix + "BACKEND": func(c *Config, v string) error {
		c.Backend.Kind = v
		return nil
	},
	EnvPrefix + "SCRIPT": func(c *Config, v string) error {
		c.Script.Path = v
		return nil
	},
	EnvPrefix + "OP_QUEUE": func(c *Config, v string) error {
		return parseInt(v, &c.Reactor.OpQueueCapacity)
	},
	EnvPrefix + "TIMER_QUEUE": func(c *Config, v string) error {
		return parseInt(v, &c.Reactor.TimerQueueCapacity)
	},
}

// ApplyEnv applies ASYNCWIN_* overrides found through lookup.
// Empty values are treated as unset.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	var errs []error
	for name, apply := range envOverrides {
		v, ok := lookup(name)
		if !ok || v == "" {
			continue
		}
		if err := apply(cfg, v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func parseInt(s string, dst *int) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	*dst = n
	return nil
}
