// Package app contains the Cobra command tree for daemonize.
package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var appVersion = "dev"

// SetVersion sets the application version (called from main with ldflags value).
func SetVersion(v string) {
	appVersion = v
	rootCmd.Version = v
}

var (
	flagNoColor bool
	flagJSON    bool
	flagConfig  string
)

var rootCmd = &cobra.Command{
	Use:   "daemonize <process file> <start|stop|restart|status>",
	Short: "Run any command as a managed background daemon",
	Long: `daemonize turns an arbitrary foreground command into a correctly
detached background process and supervises it through a PID-file based
control protocol.

The first argument names the process to run as a daemon, typically the
path of a script. The second is the lifecycle action. Once started, the
daemon re-runs the process every interval until stopped.

Examples:
  daemonize ./worker.sh start                 # detach and run ./worker.sh
  daemonize ./worker.sh start --interval 60   # re-run every minute
  daemonize ./worker.sh start --verbose true  # keep streams on the terminal
  daemonize ./worker.sh status                # report the recorded pid
  daemonize ./worker.sh restart --path /tmp --umask 18
  daemonize ./worker.sh stop                  # signal until it dies`,
	Args:          cobra.ExactArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runLifecycle,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/daemonize/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
}
