//go:build windows

package reaper

import (
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// kill terminates the process tree. Windows has no signal escalation; the
// PTY handle's own kill method is preferred when present, otherwise
// taskkill removes the process and all of its children.
func kill(pid int, opts Options) error {
	if opts.IsExited != nil && opts.IsExited() {
		return nil
	}

	if opts.PTY != nil {
		if err := opts.PTY.Kill(os.Kill); err == nil {
			return nil
		}
	}

	out, err := exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(pid)).CombinedOutput()
	if err == nil {
		return nil
	}
	if alreadyExited(string(out)) {
		return nil
	}
	return err
}

// alreadyExited reports whether taskkill output means the process is gone.
func alreadyExited(out string) bool {
	// "ERROR: The process ... not found."
	return strings.Contains(out, "not found")
}
