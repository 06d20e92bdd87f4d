//go:build windows

package daemon

// goneError is the platform's "no such process" condition, for fakes
// standing in for signal delivery.
var goneError error = errProcessGone
