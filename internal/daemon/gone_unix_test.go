//go:build !windows

package daemon

import "syscall"

// goneError is the platform's "no such process" condition, for fakes
// standing in for signal delivery.
var goneError error = syscall.ESRCH
