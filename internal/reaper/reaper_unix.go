//go:build unix

package reaper

import (
	"errors"
	"os"
	"syscall"
	"time"
)

// kill signals the process group first so descendants are included. A
// failed group signal falls back to the single pid, and a PTY handle, when
// present, is preferred over raw signalling for the escalation path.
func kill(pid int, opts Options) error {
	sig := syscall.SIGTERM
	if s, ok := opts.Signal.(syscall.Signal); ok && opts.Signal != nil {
		sig = s
	}

	if !opts.Escalate {
		return signalTree(pid, sig, opts.PTY)
	}

	if err := signalTree(pid, syscall.SIGTERM, opts.PTY); err != nil {
		return err
	}

	time.Sleep(graceWindow)

	if opts.IsExited != nil && opts.IsExited() {
		return nil
	}
	if exited(pid) {
		return nil
	}

	return signalTree(pid, syscall.SIGKILL, opts.PTY)
}

// signalTree sends sig to the process group, falling back to the single
// pid, then to the PTY's native kill path.
func signalTree(pid int, sig syscall.Signal, pty PTY) error {
	// Negative pid addresses the whole process group. Any group-kill
	// failure (including ESRCH for a non-leader pid) falls back to the
	// single process.
	if err := syscall.Kill(-pid, sig); err == nil {
		return nil
	}

	err := syscall.Kill(pid, sig)
	if err == nil || alreadyExited(err) {
		return nil
	}

	if pty != nil {
		if ptyErr := pty.Kill(os.Signal(sig)); ptyErr == nil || alreadyExited(ptyErr) {
			return nil
		}
	}

	return err
}

// exited probes the process with signal 0.
func exited(pid int) bool {
	err := syscall.Kill(pid, 0)
	return alreadyExited(err)
}

// alreadyExited reports whether err means the process is already gone.
func alreadyExited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.ESRCH) || errors.Is(err, os.ErrProcessDone) {
		return true
	}
	return false
}
