//go:build !windows

package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// shutdownSignals are the signals the daemon's bridge listens for.
// SIGHUP is included because the stop escalation uses it as a re-notify
// nudge, so it must terminate rather than reload.
var shutdownSignals = []os.Signal{syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP}

// signalActions names the action each bridged signal represents. The
// table is resolved once, when the bridge is installed in the final
// detach stage.
var signalActions = map[os.Signal]string{
	syscall.SIGTERM: "terminate",
	syscall.SIGINT:  "interrupt",
	syscall.SIGHUP:  "re-notify",
}

// terminateSignal is sent on every stop attempt; renotifySignal is the
// escalation added every tenth attempt.
var (
	terminateSignal os.Signal = syscall.SIGTERM
	renotifySignal  os.Signal = syscall.SIGHUP
)

// unixDetacher performs the two-stage re-exec chain that stands in for
// the classic double fork.
type unixDetacher struct {
	spawn func(stage string, files [3]*os.File, newSession bool) (int, error)
	exit  func(code int)
}

// NewDetacher returns the platform Detacher.
func NewDetacher() Detacher {
	return &unixDetacher{spawn: spawnStage, exit: os.Exit}
}

func (d *unixDetacher) Stage() string {
	return Stage()
}

// Detach advances the detach chain. Each step is a hard precondition for
// the next; a spawn failure at either step is fatal for the invocation
// and surfaces identically from both call sites.
func (d *unixDetacher) Detach(workDir string, umask int, streams StreamSource) error {
	switch d.Stage() {
	case StageController:
		// First fork and setsid in one step: the child begins life as
		// session and process-group leader with no controlling terminal.
		// The parent's job ends here and control returns to the shell.
		if _, err := d.spawn(StageSession, [3]*os.File{os.Stdin, os.Stdout, os.Stderr}, true); err != nil {
			return fmt.Errorf("spawning session stage: %w", err)
		}
		d.exit(0)
		return nil

	case StageSession:
		// Reset working directory and umask before the second spawn so
		// the daemon inherits both and is not pinned to a directory
		// that might later be unmounted.
		if err := os.Chdir(workDir); err != nil {
			return fmt.Errorf("changing directory to %s: %w", workDir, err)
		}
		unix.Umask(umask)

		files, err := streams.Files()
		if err != nil {
			return err
		}

		// The final stage is spawned without session leadership: it
		// lives in the session but does not lead it, so it can never
		// reacquire a controlling terminal. Once it is running this
		// intermediate process exits and the grandchild is reparented
		// to init.
		if _, err := d.spawn(StageDaemon, files, false); err != nil {
			return fmt.Errorf("spawning daemon stage: %w", err)
		}
		d.exit(0)
		return nil

	case StageDaemon:
		return nil

	default:
		return fmt.Errorf("unknown detach stage %q", d.Stage())
	}
}

// spawnStage re-executes the current binary with the stage marker set.
// Both detach steps go through here; only the session flag differs.
func spawnStage(stage string, files [3]*os.File, newSession bool) (int, error) {
	exe, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("locating executable: %w", err)
	}

	attr := &os.ProcAttr{
		Env:   append(environWithoutStage(), stageEnv+"="+stage),
		Files: []*os.File{files[0], files[1], files[2]},
		Sys:   &syscall.SysProcAttr{Setsid: newSession},
	}

	proc, err := os.StartProcess(exe, os.Args, attr)
	if err != nil {
		return 0, err
	}
	pid := proc.Pid
	_ = proc.Release()
	return pid, nil
}

// signalProcess sends sig to pid. Signal 0 probes for existence without
// delivering anything.
func signalProcess(pid int, sig os.Signal) error {
	s, ok := sig.(syscall.Signal)
	if !ok {
		return fmt.Errorf("unsupported signal type %T", sig)
	}
	return syscall.Kill(pid, s)
}

// processGone reports whether a signalProcess error means the target no
// longer exists, as opposed to an unexpected OS failure.
func processGone(err error) bool {
	return errors.Is(err, syscall.ESRCH)
}

// shellCommand wraps the opaque process descriptor in the platform shell.
func shellCommand(ctx context.Context, process string) *exec.Cmd {
	return exec.CommandContext(ctx, "/bin/sh", "-c", process)
}
