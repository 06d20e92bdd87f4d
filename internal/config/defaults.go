// Package config provides configuration loading and defaults for daemonize.
package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// DefaultPIDFile is where the instance's pid is recorded. The root path
// mirrors classic daemon conventions; unprivileged setups override it.
const DefaultPIDFile = "/daemon.pid"

// DefaultWorkDir is the directory the daemon runs in. The filesystem
// root is always present and never unmounted.
const DefaultWorkDir = "/"

// DefaultUmask is the file-creation mask applied during detach.
const DefaultUmask = 0

// DefaultIntervalSeconds is the pause between run cycles.
const DefaultIntervalSeconds = 300

// DefaultVerbose keeps daemons quiet unless asked otherwise.
const DefaultVerbose = false

// DefaultStopTimeoutSeconds bounds the stop retry loop. Zero retries
// forever, which is the protocol's documented contract.
const DefaultStopTimeoutSeconds = 0

// DefaultConfigDir is the default location for daemonize configuration.
const DefaultConfigDir = "~/.config/daemonize"

// DefaultLogFile returns the daemon log location in the XDG state
// directory.
func DefaultLogFile() string {
	return filepath.Join(xdg.StateHome, "daemonize", "daemonize.log")
}

// DefaultJournalPath returns the lifecycle journal location in the XDG
// state directory.
func DefaultJournalPath() string {
	return filepath.Join(xdg.StateHome, "daemonize", "journal.db")
}

// DefaultOutput holds the default output preferences.
var DefaultOutput = Output{Color: true}
