package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1024, cfg.Reactor.OpQueueCapacity)
	assert.Equal(t, BackendTerminal, cfg.Backend.Kind)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"op queue", func(c *Config) { c.Reactor.OpQueueCapacity = 0 }, ErrValidationFailed},
		{"timer queue", func(c *Config) { c.Reactor.TimerQueueCapacity = -1 }, ErrValidationFailed},
		{"backend", func(c *Config) { c.Backend.Kind = "wayland" }, ErrUnknownBackend},
		{"size", func(c *Config) { c.Backend.Width = 0 }, ErrValidationFailed},
		{"level", func(c *Config) { c.Log.Level = "loud" }, ErrValidationFailed},
		{"format", func(c *Config) { c.Log.Format = "xml" }, ErrValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.want)
		})
	}
}

func TestValidateReportsAll(t *testing.T) {
	cfg := Default()
	cfg.Reactor.OpQueueCapacity = 0
	cfg.Log.Format = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op_queue_capacity")
	assert.Contains(t, err.Error(), "log.format")
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "asyncwin.toml", `
[reactor]
op_queue_capacity = 64

[backend]
kind = "null"

[log]
level = "debug"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Reactor.OpQueueCapacity)
	assert.Equal(t, 1024, cfg.Reactor.TimerQueueCapacity, "unset keys keep defaults")
	assert.Equal(t, BackendNull, cfg.Backend.Kind)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "asyncwin.yml", `
backend:
  kind: "null"
  width: 320
  height: 200
script:
  path: demo.lua
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendNull, cfg.Backend.Kind)
	assert.Equal(t, uint32(320), cfg.Backend.Width)
	assert.Equal(t, "demo.lua", cfg.Script.Path)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadUnsupportedFormat(t *testing.T) {
	path := writeFile(t, t.TempDir(), "asyncwin.ini", "x=1")
	_, err := Load(path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadParseError(t *testing.T) {
	dir := t.TempDir()

	path := writeFile(t, dir, "bad.toml", "[reactor]\nop_queue_capacity = \"lots\"\n")
	_, err := Load(path)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, path, perr.Path)

	path = writeFile(t, dir, "typo.yaml", "reactor:\n  op_queue_capacty: 3\n")
	_, err = Load(path)
	require.ErrorAs(t, err, &perr)
}

func TestParseReader(t *testing.T) {
	cfg, err := Parse(strings.NewReader("log:\n  format: json\n"), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"ASYNCWIN_LOG_LEVEL":   "warn",
		"ASYNCWIN_BACKEND":     "null",
		"ASYNCWIN_OP_QUEUE":    "16",
		"ASYNCWIN_TIMER_QUEUE": "",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, ApplyEnv(&cfg, lookup))
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, BackendNull, cfg.Backend.Kind)
	assert.Equal(t, 16, cfg.Reactor.OpQueueCapacity)
	assert.Equal(t, 1024, cfg.Reactor.TimerQueueCapacity)

	env["ASYNCWIN_OP_QUEUE"] = "many"
	assert.Error(t, ApplyEnv(&cfg, lookup))
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "asyncwin.toml", "[log]\nlevel = \"debug\"\n")
	t.Setenv("ASYNCWIN_LOG_LEVEL", "error")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"a.toml", FormatTOML},
		{"a.TOML", FormatTOML},
		{"a.yaml", FormatYAML},
		{"dir/a.yml", FormatYAML},
	}
	for _, tt := range tests {
		got, err := FormatFor(tt.path)
		if err != nil {
			t.Errorf("FormatFor(%q) error: %v", tt.path, err)
			continue
		}
		if got != tt.want {
			t.Errorf("FormatFor(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "asyncwin.toml", "[log]\nlevel = \"info\"\n")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got := make(chan Config, 16)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(cfg Config, err error) {
			if err != nil {
				return
			}
			select {
			case got <- cfg:
			default:
			}
		}, WithDebounce(10*time.Millisecond))
	}()

	// The watcher may not be registered yet; keep writing until it reports.
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case cfg := <-got:
			// A reload can catch the file mid-write.
			if cfg.Log.Level != "debug" {
				continue
			}
			cancel()
			require.NoError(t, <-done)
			return
		case <-tick.C:
			writeFile(t, dir, "asyncwin.toml", "[log]\nlevel = \"debug\"\n")
		case <-ctx.Done():
			t.Fatal("no reload observed")
		}
	}
}
