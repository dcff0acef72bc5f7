// Package process terminates browser process trees left behind by the launcher.
package process

import (
	"errors"
	"fmt"
)

// ErrInvalidPID is returned for pids that would target the caller's own
// process group (0) or every process (negative values).
var ErrInvalidPID = errors.New("invalid process id")

// KillTree force-kills pid and its descendants.
// A process that has already exited is not an error.
func KillTree(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPID, pid)
	}
	return killTree(pid)
}
