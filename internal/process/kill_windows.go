//go:build windows

package process

import (
	"os/exec"
	"strconv"
)

// killTree runs taskkill with /F (force) and /T (child processes).
// taskkill fails for exited processes; that case is indistinguishable from
// other failures, so errors are dropped.
func killTree(pid int) error {
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run()
	return nil
}
