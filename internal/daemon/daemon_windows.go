//go:build windows

package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

// shutdownSignals are the signals the daemon's bridge listens for.
// Windows delivers console ctrl events as os.Interrupt; SIGTERM is kept
// for terminals that synthesize it.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// signalActions names the action each bridged signal represents.
var signalActions = map[os.Signal]string{
	os.Interrupt:    "interrupt",
	syscall.SIGTERM: "terminate",
}

// Windows cannot deliver signals to other processes, so both stop-loop
// signals collapse into TerminateProcess inside signalProcess. The
// distinct values are kept so attempt logs still show the escalation.
var (
	terminateSignal os.Signal = syscall.SIGTERM
	renotifySignal  os.Signal = syscall.SIGHUP
)

// errProcessGone marks signalProcess failures that mean the target pid
// no longer exists.
var errProcessGone = errors.New("no such process")

// windowsDetacher performs the single-step Windows variant of the detach
// chain: there are no sessions or umask here, so one re-exec into a
// detached process in a fresh process group stands in for the whole
// sequence.
type windowsDetacher struct {
	spawn func(stage string, files [3]*os.File) (int, error)
	exit  func(code int)
}

// NewDetacher returns the platform Detacher.
func NewDetacher() Detacher {
	return &windowsDetacher{spawn: spawnDetached, exit: os.Exit}
}

func (d *windowsDetacher) Stage() string {
	return Stage()
}

// Detach spawns the daemon stage detached from the console and exits.
// The umask argument is ignored; Windows has no equivalent.
func (d *windowsDetacher) Detach(workDir string, umask int, streams StreamSource) error {
	switch d.Stage() {
	case StageController:
		if err := os.Chdir(workDir); err != nil {
			return fmt.Errorf("changing directory to %s: %w", workDir, err)
		}

		files, err := streams.Files()
		if err != nil {
			return err
		}

		if _, err := d.spawn(StageDaemon, files); err != nil {
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

// spawnDetached re-executes the current binary with the stage marker set,
// detached from the current console and in its own process group.
func spawnDetached(stage string, files [3]*os.File) (int, error) {
	exe, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("locating executable: %w", err)
	}

	attr := &os.ProcAttr{
		Env:   append(environWithoutStage(), stageEnv+"="+stage),
		Files: []*os.File{files[0], files[1], files[2]},
		Sys: &syscall.SysProcAttr{
			HideWindow:    true,
			CreationFlags: windows.DETACHED_PROCESS | windows.CREATE_NEW_PROCESS_GROUP,
		},
	}

	proc, err := os.StartProcess(exe, os.Args, attr)
	if err != nil {
		return 0, err
	}
	pid := proc.Pid
	_ = proc.Release()
	return pid, nil
}

// signalProcess approximates signal delivery: any termination-class
// signal becomes TerminateProcess.
func signalProcess(pid int, sig os.Signal) error {
	h, err := windows.OpenProcess(windows.PROCESS_TERMINATE|windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		if errors.Is(err, windows.ERROR_INVALID_PARAMETER) {
			// OpenProcess rejects pids that do not exist this way.
			return errProcessGone
		}
		return err
	}
	defer func() { _ = windows.CloseHandle(h) }()

	return windows.TerminateProcess(h, 1)
}

// processGone reports whether a signalProcess error means the target no
// longer exists.
func processGone(err error) bool {
	return errors.Is(err, errProcessGone)
}

// shellCommand wraps the opaque process descriptor in the platform shell.
func shellCommand(ctx context.Context, process string) *exec.Cmd {
	return exec.CommandContext(ctx, "cmd", "/C", process)
}
