package daemon

import "sync/atomic"

// State is the daemon's in-memory liveness flag. It is owned by the
// final detach stage: initialized alive when the stage starts, flipped
// by the signal path or normal termination, and consulted by the run
// loop before each cycle.
type State struct {
	alive atomic.Bool
}

// NewState returns a State marked alive.
func NewState() *State {
	s := &State{}
	s.alive.Store(true)
	return s
}

// Alive reports whether the daemon should keep running.
func (s *State) Alive() bool {
	return s.alive.Load()
}

// MarkStopped flips the flag so the run loop winds down after the
// current cycle.
func (s *State) MarkStopped() {
	s.alive.Store(false)
}
