package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/blackwell-systems/daemonize/internal/journal"
	"github.com/blackwell-systems/daemonize/internal/pidfile"
)

// Stop-loop policy: a terminate signal every attempt, spaced 100ms
// apart, with the re-notify signal added every tenth attempt. The loop
// runs forever unless a stop timeout is configured.
const (
	stopPollInterval = 100 * time.Millisecond
	renotifyEvery    = 10
)

// Controller drives one lifecycle action per invocation: idle, then
// exactly one of start, stop, restart, or status, then terminated.
// Separate invocations may overlap in real time; the PID file is their
// only shared state and it is not locked.
type Controller struct {
	cfg      Config
	pids     *pidfile.Store
	streams  StreamSource
	detacher Detacher
	logger   *log.Logger
	events   *journal.DB // nil disables lifecycle event recording

	// Signal delivery and pacing, replaceable in tests so stop-loop
	// behavior can be exercised without live processes.
	kill  func(pid int, sig os.Signal) error
	sleep func(time.Duration)
}

// NewController builds a Controller wired to the real platform: actual
// signal delivery, actual re-exec detaching, wall-clock pacing.
func NewController(cfg Config, logger *log.Logger, events *journal.DB) *Controller {
	return &Controller{
		cfg:      cfg,
		pids:     pidfile.New(cfg.PIDFile),
		streams:  NewRedirector(cfg.Verbose),
		detacher: NewDetacher(),
		logger:   logger,
		events:   events,
		kill:     signalProcess,
		sleep:    time.Sleep,
	}
}

// Start detaches and becomes the daemon. Under normal operation it never
// returns to the original caller: the controller and session stages exit
// inside Detach after spawning their successor, and the final stage only
// comes back once the run loop has been told to stop.
func (c *Controller) Start(ctx context.Context) error {
	if c.detacher.Stage() == StageController {
		if pid, ok := c.pids.Read(); ok {
			// Best effort only: the recorded pid is not probed for
			// liveness, so a stale file blocks start until a stop
			// clears it.
			return fmt.Errorf("pid file %s already exists (pid %d), is the daemon already running?",
				c.pids.Path(), pid)
		}
	}

	if err := c.detacher.Detach(c.cfg.WorkDir, c.cfg.Umask, c.streams); err != nil {
		return err
	}

	return c.runDetached(ctx)
}

// runDetached is the final stage's body: record our own pid, bridge the
// signals, run the cycle loop, and release the PID file on the way out.
func (c *Controller) runDetached(ctx context.Context) error {
	pid := os.Getpid()
	if err := c.pids.Write(pid); err != nil {
		return err
	}

	// The release runs exactly once whichever exit path fires first:
	// the normal return below or the bridge's hard path.
	var once sync.Once
	release := func() {
		once.Do(func() {
			if err := c.pids.Delete(); err != nil {
				c.logger.Warn("releasing pid file", "err", err)
			}
		})
	}
	defer release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	state := NewState()
	bridge := NewBridge(state, c.logger, release)
	bridge.Install(cancel)
	defer bridge.Uninstall()

	runID := uuid.NewString()
	logger := c.logger.With("run", shortID(runID))
	logger.Info("daemon started", "pid", pid,
		"process", c.cfg.Process, "interval", c.cfg.Interval)
	c.record("started", pid, runID, "")

	runner := NewRunner(c.cfg.Process, c.cfg.Interval, logger)
	err := runner.Run(ctx, state)
	if err != nil && !errors.Is(err, context.Canceled) {
		c.record("failed", pid, runID, err.Error())
		return err
	}

	logger.Info("daemon shut down", "pid", pid)
	c.record("shutdown", pid, runID, "")
	return nil
}

// StopOutcome classifies how a stop concluded.
type StopOutcome int

const (
	// StopNotRunning means there was no usable PID file to act on.
	StopNotRunning StopOutcome = iota
	// StopStale means the recorded process was already gone before the
	// first signal landed; the leftover file was removed.
	StopStale
	// StopSignaled means the process was signaled until it died.
	StopSignaled
)

// StopResult reports what Stop did.
type StopResult struct {
	Outcome  StopOutcome
	PID      int
	Attempts int
	Elapsed  time.Duration
}

// Stop signals the recorded daemon until it dies. The loop has no
// deadline by default; the target actually going away is its only
// ordinary exit, detected through the signal call itself failing with
// "no such process". Stopping when nothing runs is an idempotent no-op.
func (c *Controller) Stop() (StopResult, error) {
	pid, ok := c.pids.Read()
	if !ok {
		// Clear any unreadable leftover so the next start is not
		// blocked by garbage.
		if err := c.pids.Delete(); err != nil {
			return StopResult{}, err
		}
		return StopResult{Outcome: StopNotRunning}, nil
	}

	c.logger.Info("stopping daemon", "pid", pid)
	started := time.Now()

	var deadline time.Time
	if c.cfg.StopTimeout > 0 {
		deadline = started.Add(c.cfg.StopTimeout)
	}

	for attempt := 1; ; attempt++ {
		if err := c.kill(pid, terminateSignal); err != nil {
			return c.stopFinished(pid, attempt, started, err)
		}
		c.sleep(stopPollInterval)

		if attempt%renotifyEvery == 0 {
			if err := c.kill(pid, renotifySignal); err != nil {
				return c.stopFinished(pid, attempt, started, err)
			}
		}

		if !deadline.IsZero() && time.Now().After(deadline) {
			return StopResult{}, fmt.Errorf("daemon (pid %d) still alive after %s", pid, c.cfg.StopTimeout)
		}
	}
}

// stopFinished classifies the first signaling error: "no such process"
// is the loop's ordinary exit and self-heals the PID file, anything else
// is fatal for the invocation.
func (c *Controller) stopFinished(pid, attempts int, started time.Time, sigErr error) (StopResult, error) {
	if !processGone(sigErr) {
		return StopResult{}, fmt.Errorf("signaling pid %d: %w", pid, sigErr)
	}

	if err := c.pids.Delete(); err != nil {
		return StopResult{}, err
	}

	outcome := StopSignaled
	action := "stopped"
	if attempts == 1 {
		// Gone before the first terminate landed: the file was stale.
		outcome = StopStale
		action = "stale-cleared"
	}
	c.record(action, pid, "", fmt.Sprintf("after %d attempt(s)", attempts))
	c.logger.Info("daemon stopped", "pid", pid, "attempts", attempts)

	return StopResult{
		Outcome:  outcome,
		PID:      pid,
		Attempts: attempts,
		Elapsed:  time.Since(started),
	}, nil
}

// Restart is stop then start, sequentially, with no combined atomicity:
// another controller can slip in between the two halves. Only the
// controller stage performs the stop half; the re-exec stages carry the
// restart action in their arguments and must not repeat it.
func (c *Controller) Restart(ctx context.Context) error {
	if c.detacher.Stage() == StageController {
		if _, err := c.Stop(); err != nil {
			return err
		}
		c.record("restart", 0, "", "")
	}
	return c.Start(ctx)
}

// StatusReport is what Status learns from the PID file alone.
type StatusReport struct {
	PIDFile string `json:"pid_file"`
	Present bool   `json:"present"`
	PID     int    `json:"pid,omitempty"`
}

// Status reads the PID file and reports what it says, deliberately
// without a liveness probe: the file is the protocol's source of truth,
// and the report reflects it even when the recorded process is long
// gone.
func (c *Controller) Status() StatusReport {
	pid, ok := c.pids.Read()
	return StatusReport{PIDFile: c.pids.Path(), Present: ok, PID: pid}
}

// record appends a lifecycle event to the journal when one is attached.
// Journal trouble is logged and swallowed; it never blocks the
// lifecycle itself.
func (c *Controller) record(action string, pid int, runID, detail string) {
	if c.events == nil {
		return
	}
	err := c.events.Record(&journal.Event{
		At:      time.Now().UTC(),
		RunID:   runID,
		PID:     pid,
		Action:  action,
		Process: c.cfg.Process,
		Detail:  detail,
	})
	if err != nil {
		c.logger.Warn("recording lifecycle event", "action", action, "err", err)
	}
}

// shortID shortens a run id for log fields.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
