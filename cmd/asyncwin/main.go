// Package main is the asyncwin command: it drives an event loop on a
// terminal or headless backend, optionally scripted in Lua.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// flags shared by every subcommand.
type rootFlags struct {
	configPath string
	backend    string
	logLevel   string
	logFile    string
}

func main() {
	os.Exit(execute())
}

func execute() int {
	var code int
	if err := newRootCmd(&code).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return code
}

// newRootCmd builds the command tree. code receives the exit code
// requested through the event loop.
func newRootCmd(code *int) *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "asyncwin",
		Short:         "Run an asyncwin event loop",
		Long:          "asyncwin runs a single-threaded native event loop and schedules window operations, timers and Lua callbacks onto it.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	root.Annotations = map[string]string{"commit": commit, "date": date}
	root.SetVersionTemplate("{{printf \"%s %s\\ncommit: %s\\ndate: %s\\n\" .DisplayName .Version (index .Annotations \"commit\") (index .Annotations \"date\")}}")

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "asyncwin.toml", "Path to configuration file (TOML or YAML)")
	pf.StringVar(&flags.backend, "backend", "", "Backend to use (terminal or null)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&flags.logFile, "log-file", "", "Write logs to this file instead of stderr")

	root.AddCommand(
		newRunCmd(flags, code),
		newMonitorsCmd(flags),
		newConfigCmd(flags),
	)
	return root
}
