// Package reaper terminates spawned OS processes and their descendants.
// Shell-backed tools fork real process trees; a cancelled or timed-out
// call must not leave orphans behind. Killing an already-dead process is
// never an error.
package reaper

import (
	"os"
	"time"
)

// graceWindow is how long a process gets to exit after a graceful signal
// before escalation sends SIGKILL. Variable for tests.
var graceWindow = 200 * time.Millisecond

// PTY is the kill surface of a pseudo-terminal handle. When a tool was
// spawned through a PTY, its native kill path is preferred over raw
// signalling because it tears down the terminal session with the process.
type PTY interface {
	Kill(sig os.Signal) error
}

// Options controls how Kill terminates a process.
type Options struct {
	// Escalate upgrades from a graceful signal to a forced kill if the
	// process is still alive after the grace window.
	Escalate bool

	// Signal overrides the initial signal. Defaults to SIGTERM on POSIX;
	// ignored on Windows, which has no signal semantics.
	Signal os.Signal

	// IsExited, when set, lets the caller report whether the process has
	// already exited, avoiding a redundant forced kill.
	IsExited func() bool

	// PTY is the optional pseudo-terminal handle for the process.
	PTY PTY
}

// Kill terminates the process identified by pid together with its
// descendants. Platform behavior:
//
//   - POSIX: signals the process group first so children are included,
//     falling back to the single pid, then to the PTY handle. With
//     Escalate set it sends SIGTERM, waits the grace window, and sends
//     SIGKILL only if the process is still alive.
//   - Windows: recursively terminates the process tree, or uses the PTY
//     handle when present. There is no escalation.
//
// All paths treat "process already exited" as success.
func Kill(pid int, opts Options) error {
	return kill(pid, opts)
}
