package app

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/daemonize/internal/config"
	"github.com/blackwell-systems/daemonize/internal/daemon"
	"github.com/blackwell-systems/daemonize/internal/journal"
	"github.com/blackwell-systems/daemonize/internal/logging"
	"github.com/blackwell-systems/daemonize/internal/output"
)

var (
	lifecycleInterval    int
	lifecycleVerbose     string
	lifecyclePath        string
	lifecycleUmask       int
	lifecyclePIDFile     string
	lifecycleStopTimeout time.Duration
	statusDetail         bool
)

func init() {
	registerLifecycleFlags(rootCmd)
}

// registerLifecycleFlags binds the lifecycle action flags onto cmd.
func registerLifecycleFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&lifecycleInterval, "interval", config.DefaultIntervalSeconds, "Daemon process running interval in seconds")
	cmd.Flags().StringVar(&lifecycleVerbose, "verbose", "false", "Debug mode switch (true|false): keep streams on the terminal")
	cmd.Flags().StringVar(&lifecyclePath, "path", config.DefaultWorkDir, "Working directory for the detached daemon")
	cmd.Flags().IntVar(&lifecycleUmask, "umask", config.DefaultUmask, "File-creation mask applied during detach")
	cmd.Flags().StringVar(&lifecyclePIDFile, "pid-file", config.DefaultPIDFile, "PID file path identifying this daemon instance")
	cmd.Flags().DurationVar(&lifecycleStopTimeout, "stop-timeout", 0, "Give up stopping after this long (0 waits forever)")
	cmd.Flags().BoolVar(&statusDetail, "detail", false, "Show extended process information with the status action")
}

func runLifecycle(cmd *cobra.Command, args []string) error {
	process, action := args[0], args[1]
	switch action {
	case "start", "stop", "restart", "status":
	default:
		return fmt.Errorf("unknown action %q (want start, stop, restart or status)", action)
	}

	if flagNoColor || !isatty.IsTerminal(os.Stdout.Fd()) {
		output.SetNoColor(true)
	}

	dcfg, cfg, err := buildDaemonConfig(cmd, process)
	if err != nil {
		return err
	}

	logger, closeLog, err := logging.New(logging.Options{
		Path:    cfg.LogFile,
		Console: dcfg.Verbose,
		Verbose: dcfg.Verbose,
	})
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	// The detach chain re-executes this whole entry path in every stage;
	// the invocation banner belongs to the first one only.
	if daemon.Stage() == daemon.StageController {
		logger.Info("daemon invocation", "action", action,
			"process", dcfg.Process, "interval", dcfg.Interval)
	}

	var events *journal.DB
	if db, err := journal.Open(cfg.JournalPath); err != nil {
		// The journal is bookkeeping; a broken one must not block the
		// lifecycle itself.
		logger.Warn("journal unavailable", "err", err)
	} else {
		events = db
		defer func() { _ = db.Close() }()
	}

	ctrl := daemon.NewController(dcfg, logger, events)

	switch action {
	case "start":
		return ctrl.Start(cmd.Context())
	case "stop":
		res, err := ctrl.Stop()
		if err != nil {
			return err
		}
		return printStopResult(res, dcfg.PIDFile)
	case "restart":
		return ctrl.Restart(cmd.Context())
	case "status":
		return printStatus(ctrl.Status())
	}
	return nil
}

// buildDaemonConfig merges the config file with explicit CLI flags.
// Flags win, but only when actually set, so a configured value is not
// clobbered by a flag default.
func buildDaemonConfig(cmd *cobra.Command, process string) (daemon.Config, *config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return daemon.Config{}, nil, fmt.Errorf("loading config: %w", err)
	}

	dcfg := daemon.Config{
		Process:     process,
		PIDFile:     cfg.PIDFile,
		WorkDir:     cfg.WorkDir,
		Umask:       cfg.Umask,
		Interval:    time.Duration(cfg.IntervalSeconds) * time.Second,
		Verbose:     cfg.Verbose,
		StopTimeout: time.Duration(cfg.StopTimeoutSeconds) * time.Second,
	}

	flags := cmd.Flags()
	if flags.Changed("pid-file") {
		dcfg.PIDFile = lifecyclePIDFile
	}
	if flags.Changed("path") {
		dcfg.WorkDir = lifecyclePath
	}
	if flags.Changed("umask") {
		dcfg.Umask = lifecycleUmask
	}
	if flags.Changed("interval") {
		dcfg.Interval = time.Duration(lifecycleInterval) * time.Second
	}
	if flags.Changed("stop-timeout") {
		dcfg.StopTimeout = lifecycleStopTimeout
	}
	if flags.Changed("verbose") {
		v, err := strconv.ParseBool(lifecycleVerbose)
		if err != nil {
			return daemon.Config{}, nil, fmt.Errorf("invalid --verbose value %q (want true or false)", lifecycleVerbose)
		}
		dcfg.Verbose = v
	}

	return dcfg, cfg, nil
}

// stopOutput is the JSON-serializable result of the stop action.
type stopOutput struct {
	Outcome  string `json:"outcome"`
	PIDFile  string `json:"pid_file"`
	PID      int    `json:"pid,omitempty"`
	Attempts int    `json:"attempts,omitempty"`
	Elapsed  string `json:"elapsed,omitempty"`
}

// printStopResult reports the stop outcome to the terminal.
func printStopResult(res daemon.StopResult, pidFile string) error {
	if flagJSON {
		out := stopOutput{
			Outcome: stopOutcomeName(res.Outcome),
			PIDFile: pidFile,
			PID:     res.PID,
		}
		if res.Outcome == daemon.StopSignaled {
			out.Attempts = res.Attempts
			out.Elapsed = res.Elapsed.Round(time.Millisecond).String()
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	switch res.Outcome {
	case daemon.StopNotRunning:
		fmt.Printf("Daemon not running, pid file %s absent.\n", pidFile)
	case daemon.StopStale:
		fmt.Printf("Removed stale pid file, process %d was already gone.\n", res.PID)
	case daemon.StopSignaled:
		fmt.Printf("Daemon stopped (pid %d after %d attempts).\n", res.PID, res.Attempts)
	}
	return nil
}

// stopOutcomeName maps a stop outcome onto its wire name.
func stopOutcomeName(o daemon.StopOutcome) string {
	switch o {
	case daemon.StopStale:
		return "stale-cleared"
	case daemon.StopSignaled:
		return "stopped"
	default:
		return "not-running"
	}
}
