//go:build unix

package shell

import (
	"os/exec"
	"syscall"
)

// shellCommand wraps a command line for the system shell.
func shellCommand(command string) (string, []string) {
	return "/bin/sh", []string{"-c", command}
}

// setProcessGroup puts the child in its own process group so the whole
// tree can be signalled with one negative-pid kill.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
