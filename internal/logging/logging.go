// Package logging builds the structured logger shared by the CLI and
// the detached daemon.
//
// A detached daemon has no terminal, so the primary sink is an
// append-mode log file. Console echo onto stderr is layered on top for
// foreground stages and verbose runs.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// Options selects the logger's sinks and level.
type Options struct {
	// Path is the log file location. Empty disables file logging.
	Path string
	// Console mirrors log records onto stderr.
	Console bool
	// Verbose lowers the level to debug.
	Verbose bool
}

// New builds a logger for the given options. The returned closer
// releases the log file and must be called on shutdown.
func New(opts Options) (*log.Logger, func() error, error) {
	var sinks []io.Writer
	closer := func() error { return nil }

	if opts.Path != "" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		sinks = append(sinks, f)
		closer = f.Close
	}
	if opts.Console {
		sinks = append(sinks, os.Stderr)
	}

	var w io.Writer
	switch len(sinks) {
	case 0:
		w = io.Discard
	case 1:
		w = sinks[0]
	default:
		w = io.MultiWriter(sinks...)
	}

	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05",
	})
	if opts.Verbose {
		logger.SetLevel(log.DebugLevel)
	}

	return logger, closer, nil
}
