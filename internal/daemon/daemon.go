// Package daemon turns a foreground command into a detached background
// process and drives it through a PID-file based lifecycle protocol
// (start, stop, restart, status).
//
// Go cannot call fork directly, so the classic double-fork sequence is
// reproduced by re-executing the binary in stages. The stage marker
// travels in an environment variable; each stage performs its slice of
// the detach sequence and spawns the next one:
//
//	controller  checks the PID file, spawns the session stage in a new
//	            session (first fork + setsid), exits 0
//	session     resets working directory and umask, spawns the daemon
//	            stage without session leadership (second fork), exits 0
//	daemon      writes its own pid, bridges signals, runs the command
//	            loop; reparented to init, unable to reacquire a terminal
package daemon

import (
	"os"
	"strings"
	"time"
)

// stageEnv carries the detach stage marker across re-execs.
const stageEnv = "DAEMONIZE_STAGE"

// Detach stages, in spawn order.
const (
	StageController = ""
	StageSession    = "session"
	StageDaemon     = "daemon"
)

// Stage reports which detach stage the current process is in, read from
// the environment. An unset marker means this is the initial controller
// invocation, still attached to the caller's terminal.
func Stage() string {
	return os.Getenv(stageEnv)
}

// environWithoutStage returns the current environment minus any existing
// stage marker, so markers never stack across re-execs.
func environWithoutStage() []string {
	env := os.Environ()
	out := make([]string, 0, len(env))
	for _, kv := range env {
		if !strings.HasPrefix(kv, stageEnv+"=") {
			out = append(out, kv)
		}
	}
	return out
}

// Config carries one invocation's immutable inputs. It is built once at
// process entry from flags and the config file and never mutated.
type Config struct {
	// Process is the opaque command descriptor the daemon executes each
	// cycle. The controller never interprets it beyond handing it to the
	// platform shell.
	Process string

	// PIDFile is the path of the PID file identifying this instance.
	PIDFile string

	// WorkDir is the directory the daemon runs in, reset during detach
	// so the daemon is not pinned to a directory that might later be
	// unmounted.
	WorkDir string

	// Umask is the file-creation mask applied during detach. Ignored on
	// platforms without a umask concept.
	Umask int

	// Interval is the pause between run-body cycles.
	Interval time.Duration

	// Verbose keeps the standard streams attached to the caller instead
	// of the null device and raises the log level.
	Verbose bool

	// StopTimeout bounds the stop retry loop. Zero keeps the loop
	// unbounded, ended only by the target process dying.
	StopTimeout time.Duration
}

// Detacher severs the calling process from its controlling terminal and
// parent so the final stage survives the invoking shell's exit.
type Detacher interface {
	// Stage reports the current process's position in the detach chain.
	Stage() string

	// Detach advances the chain from wherever the current process sits
	// in it. In the controller and intermediate stages it spawns the
	// next stage and exits this process with status 0, so it returns
	// only on spawn failure there. In the final stage it is a no-op and
	// returns nil; everything after the call runs fully detached.
	// streams supplies the standard streams the final stage is born
	// with.
	Detach(workDir string, umask int, streams StreamSource) error
}

// StreamSource produces the three standard streams for the final detach
// stage.
type StreamSource interface {
	Files() ([3]*os.File, error)
}
