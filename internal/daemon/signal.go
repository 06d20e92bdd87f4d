package daemon

import (
	"context"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
)

// Bridge forwards termination-class signals to the daemon's shutdown
// path. It belongs exclusively to the final detach stage; the earlier
// stages are gone before any signal could arrive, so installing it
// there would have no effect.
type Bridge struct {
	state   *State
	logger  *log.Logger
	release func() // PID-file cleanup, guarded by the caller's once
	exit    func(int)
	ch      chan os.Signal
}

// NewBridge returns an uninstalled Bridge.
func NewBridge(state *State, logger *log.Logger, release func()) *Bridge {
	return &Bridge{state: state, logger: logger, release: release, exit: os.Exit}
}

// Install registers the signal table and starts the delivery goroutine.
// The first signal marks the state stopped and cancels the run context,
// letting the loop wind down through the normal exit path, which owns
// the PID-file release. A second signal skips the wait: release, then
// exit 0 directly.
func (b *Bridge) Install(cancel context.CancelFunc) {
	b.ch = make(chan os.Signal, 1)
	signal.Notify(b.ch, shutdownSignals...)

	go func() {
		sig := <-b.ch
		b.logger.Info("signal received", "signal", sig, "action", signalActions[sig])
		b.state.MarkStopped()
		cancel()

		sig = <-b.ch
		b.logger.Warn("second signal, exiting immediately", "signal", sig)
		b.release()
		b.exit(0)
	}()
}

// Uninstall stops signal delivery to the bridge.
func (b *Bridge) Uninstall() {
	if b.ch != nil {
		signal.Stop(b.ch)
	}
}
