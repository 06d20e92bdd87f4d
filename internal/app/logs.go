package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/daemonize/internal/config"
)

var (
	logsLines  int
	logsFollow bool
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show the daemon log",
	Long: `Print the tail of the daemon log file. A detached daemon's standard
streams point at the null device, so the log file is where all of its
records end up.

Examples:
  daemonize logs              # last 40 lines
  daemonize logs --lines 200
  daemonize logs --follow     # keep printing as the daemon logs`,
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().IntVar(&logsLines, "lines", 40, "Number of trailing lines to print")
	logsCmd.Flags().BoolVar(&logsFollow, "follow", false, "Keep watching the file and print new lines as they arrive")
	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	f, err := os.Open(cfg.LogFile)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Printf("No log file yet at %s.\n", cfg.LogFile)
			return nil
		}
		return fmt.Errorf("opening log file: %w", err)
	}
	defer func() { _ = f.Close() }()

	offset, err := printTail(f, logsLines)
	if err != nil {
		return err
	}

	if !logsFollow {
		return nil
	}
	return followFile(cmd.Context(), f, offset)
}

// printTail prints the last n lines of f and returns the offset where
// following should resume.
func printTail(f *os.File, n int) (int64, error) {
	data, err := io.ReadAll(f)
	if err != nil {
		return 0, fmt.Errorf("reading log file: %w", err)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		lines = nil
	}
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	for _, line := range lines {
		fmt.Println(line)
	}

	return int64(len(data)), nil
}

// followFile prints lines appended to f after offset until interrupted.
func followFile(ctx context.Context, f *os.File, offset int64) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(f.Name()); err != nil {
		return fmt.Errorf("watching log file: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sigCh:
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) {
				if offset, err = printFrom(f, offset); err != nil {
					return err
				}
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				return nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watching log file: %w", err)
		}
	}
}

// printFrom prints everything between offset and the current end of f.
// A file shorter than the offset was truncated underneath us; printing
// restarts from the top.
func printFrom(f *os.File, offset int64) (int64, error) {
	info, err := f.Stat()
	if err != nil {
		return offset, err
	}
	if info.Size() < offset {
		offset = 0
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return offset, err
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return offset, err
	}
	fmt.Print(string(data))
	return offset + int64(len(data)), nil
}
