//go:build windows

package shell

import "os/exec"

// shellCommand wraps a command line for cmd.exe.
func shellCommand(command string) (string, []string) {
	return "cmd", []string{"/C", command}
}

// setProcessGroup is a no-op: on Windows the reaper kills the tree with
// taskkill /T, which needs no process group.
func setProcessGroup(*exec.Cmd) {}
