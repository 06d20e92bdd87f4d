// Package pidfile reads and writes the single PID file that records which
// process currently owns a daemon instance.
package pidfile

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Store manages one PID file at a fixed path.
//
// The file holds exactly one decimal process id followed by a newline.
// Presence of the file means "an instance may be running"; absence means
// "no instance is running". No locking is used, so the mapping from
// file presence to actual liveness is a convention, not a guarantee: a
// stale file can outlive its process, and two controllers racing through
// read-then-write can both conclude nothing is running.
type Store struct {
	path string
}

// New returns a Store for the PID file at path.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the PID file path.
func (s *Store) Path() string {
	return s.path
}

// Read parses the recorded pid. A file that is absent, empty, or does not
// contain a decimal integer yields ok=false; none of those are errors,
// they all mean "no owner".
func (s *Store) Read() (pid int, ok bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return 0, false
	}
	pid, err = strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// Exists reports whether the PID file is present, readable or not.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Write records pid, fully superseding any previous content.
func (s *Store) Write(pid int) error {
	if err := os.WriteFile(s.path, []byte(strconv.Itoa(pid)+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing pid file %s: %w", s.path, err)
	}
	return nil
}

// Delete removes the PID file. Removing an absent file is a no-op, not
// an error, so Delete is safe to call from every exit path.
func (s *Store) Delete() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing pid file %s: %w", s.path, err)
	}
	return nil
}
