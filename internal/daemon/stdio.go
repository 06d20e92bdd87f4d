package daemon

import (
	"fmt"
	"os"
)

// Redirector chooses the standard streams a daemon is born with: the
// caller's inherited trio when verbose, the null device otherwise.
type Redirector struct {
	verbose bool
}

// NewRedirector returns a Redirector for the given verbosity.
func NewRedirector(verbose bool) *Redirector {
	return &Redirector{verbose: verbose}
}

// Files returns stdin, stdout, and stderr for the final detach stage.
// Buffered output on the current streams is flushed first so nothing is
// lost at the handoff. Failure to open the null device is fatal for the
// start; a daemon with dangling standard streams is worse than no
// daemon.
func (r *Redirector) Files() ([3]*os.File, error) {
	_ = os.Stdout.Sync()
	_ = os.Stderr.Sync()

	if r.verbose {
		return [3]*os.File{os.Stdin, os.Stdout, os.Stderr}, nil
	}

	in, err := os.OpenFile(os.DevNull, os.O_RDONLY, 0)
	if err != nil {
		return [3]*os.File{}, fmt.Errorf("opening %s for stdin: %w", os.DevNull, err)
	}
	out, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		_ = in.Close()
		return [3]*os.File{}, fmt.Errorf("opening %s for stdout: %w", os.DevNull, err)
	}

	// stdout and stderr share one write handle, like a shell's 2>&1.
	return [3]*os.File{in, out, out}, nil
}
