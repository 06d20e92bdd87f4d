package app

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/daemonize/internal/config"
	"github.com/blackwell-systems/daemonize/internal/journal"
	"github.com/blackwell-systems/daemonize/internal/output"
)

var (
	historyLimit  int
	historyAction string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded daemon lifecycle events",
	Long: `Query the lifecycle journal for past daemon events. Every lifecycle
action that runs with the journal available leaves a trace: daemon
starts, clean shutdowns, stop escalations, stale-file cleanups, and
run-loop failures.

Examples:
  daemonize history                   # latest 20 events
  daemonize history --limit 50
  daemonize history --action stopped  # only completed stops
  daemonize history --json`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of events to show")
	historyCmd.Flags().StringVar(&historyAction, "action", "", "Filter by action (started, stopped, shutdown, failed, restart, stale-cleared)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if flagNoColor {
		output.SetNoColor(true)
	}

	db, err := journal.Open(cfg.JournalPath)
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	defer func() { _ = db.Close() }()

	events, err := db.Recent(historyAction, historyLimit)
	if err != nil {
		return fmt.Errorf("querying journal: %w", err)
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(events)
	}

	if len(events) == 0 {
		fmt.Println("No lifecycle events recorded yet.")
		return nil
	}

	fmt.Println(output.Section("Lifecycle History"))
	fmt.Println()

	tbl := output.NewTable("Time", "Action", "PID", "Run", "Process", "Detail")
	for _, e := range events {
		pidStr := ""
		if e.PID > 0 {
			pidStr = strconv.Itoa(e.PID)
		}
		tbl.AddRow(
			e.At.Local().Format("2006-01-02 15:04"),
			styledAction(e.Action),
			pidStr,
			truncateID(e.RunID),
			output.Truncate(e.Process, 40),
			e.Detail,
		)
	}
	tbl.Print()

	return nil
}

// styledAction colors a lifecycle action by its nature.
func styledAction(action string) string {
	switch action {
	case "started":
		return output.StyleSuccess.Render(action)
	case "failed":
		return output.StyleError.Render(action)
	case "stale-cleared":
		return output.StyleWarning.Render(action)
	default:
		return action
	}
}

// truncateID shortens a run id for display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
