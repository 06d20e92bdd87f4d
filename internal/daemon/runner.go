package daemon

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// Runner executes the opaque process descriptor once per cycle, pausing
// for the configured interval after each completed run. The descriptor
// is handed to the platform shell verbatim; whatever it writes is folded
// into the structured log line by line.
type Runner struct {
	process  string
	interval time.Duration
	logger   *log.Logger
}

// NewRunner returns a Runner for the given descriptor and interval.
func NewRunner(process string, interval time.Duration, logger *log.Logger) *Runner {
	return &Runner{process: process, interval: interval, logger: logger}
}

// Run loops until ctx is cancelled or the state is marked stopped. A
// failing cycle is logged and the schedule keeps going; the daemon does
// not die because one run of its workload did.
func (r *Runner) Run(ctx context.Context, state *State) error {
	for state.Alive() {
		if err := r.runOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.logger.Error("cycle failed", "err", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.interval):
		}
	}
	return nil
}

// runOnce starts one cycle of the descriptor and waits for it to finish.
// Cancellation kills the in-flight command through the exec context.
func (r *Runner) runOnce(ctx context.Context) error {
	cmd := shellCommand(ctx, r.process)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %q: %w", r.process, err)
	}

	started := time.Now()
	r.logger.Debug("cycle started", "process", r.process, "pid", cmd.Process.Pid)

	// Both pipes must be drained before Wait, per os/exec.
	var g errgroup.Group
	g.Go(func() error { return r.pump("stdout", stdout) })
	g.Go(func() error { return r.pump("stderr", stderr) })
	pumpErr := g.Wait()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("running %q: %w", r.process, err)
	}
	if pumpErr != nil {
		return fmt.Errorf("reading output of %q: %w", r.process, pumpErr)
	}

	r.logger.Info("cycle finished", "process", r.process,
		"duration", time.Since(started).Round(time.Millisecond))
	return nil
}

// pump copies one output stream into the log, a line per entry.
func (r *Runner) pump(stream string, rd io.Reader) error {
	sc := bufio.NewScanner(rd)
	for sc.Scan() {
		r.logger.Info(sc.Text(), "stream", stream)
	}
	return sc.Err()
}
