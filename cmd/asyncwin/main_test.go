package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execRoot(t *testing.T, args ...string) (string, int, error) {
	t.Helper()
	var code int
	var out bytes.Buffer
	root := newRootCmd(&code)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), code, err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestConfigCommand(t *testing.T) {
	path := writeFile(t, "asyncwin.toml", "[log]\nlevel = \"debug\"\n")

	out, _, err := execRoot(t, "config", "-c", path, "--backend", "null")
	require.NoError(t, err)
	assert.Contains(t, out, "debug")
	assert.Contains(t, out, "null")
	assert.Contains(t, out, "op_queue_capacity")
}

func TestConfigCommandRejectsBadBackend(t *testing.T) {
	_, _, err := execRoot(t, "config", "-c", filepath.Join(t.TempDir(), "none.toml"), "--backend", "wayland")
	assert.Error(t, err)
}

func TestMonitorsCommand(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "asyncwin.log")
	out, _, err := execRoot(t, "monitors",
		"-c", filepath.Join(t.TempDir(), "none.toml"),
		"--backend", "null",
		"--log-file", logFile,
	)
	require.NoError(t, err)
	assert.Contains(t, out, "null-0")
	assert.Contains(t, out, "1920x1080")
}

func TestRunScriptExitCode(t *testing.T) {
	script := writeFile(t, "exit.lua", `
set_title("scripted")
after(5, function() exit(5) end)
`)
	_, code, err := execRoot(t, "run",
		"-c", filepath.Join(t.TempDir(), "none.toml"),
		"--backend", "null",
		"--log-file", filepath.Join(t.TempDir(), "asyncwin.log"),
		"--script", script,
	)
	require.NoError(t, err)
	assert.Equal(t, 5, code)
}

func TestRunScriptError(t *testing.T) {
	script := writeFile(t, "broken.lua", `this is not lua`)
	_, _, err := execRoot(t, "run",
		"-c", filepath.Join(t.TempDir(), "none.toml"),
		"--backend", "null",
		"--log-file", filepath.Join(t.TempDir(), "asyncwin.log"),
		"--script", script,
	)
	assert.Error(t, err)
}
