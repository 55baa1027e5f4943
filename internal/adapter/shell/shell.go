// Package shell implements the tool port for running shell commands. Each
// invocation spawns the command in its own process group and exposes the
// process handle so the scheduler can reap the whole tree on cancellation.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sync"

	"github.com/Strob0t/Overseer/internal/domain"
	"github.com/Strob0t/Overseer/internal/domain/toolcall"
	"github.com/Strob0t/Overseer/internal/port/tool"
)

const toolName = "shell"

// defaultMaxOutput caps captured output per invocation.
const defaultMaxOutput = 256 * 1024

// Config holds shell tool settings shared by all invocations.
type Config struct {
	// WorkDir is the working directory for spawned commands.
	WorkDir string

	// Env is the environment for spawned commands; nil inherits the
	// parent environment.
	Env []string

	// MaxOutputBytes caps captured stdout+stderr. Zero uses the default.
	MaxOutputBytes int

	// AlwaysConfirm makes every invocation request a confirmation even
	// when policy allows it.
	AlwaysConfirm bool
}

// Tool builds shell invocations.
type Tool struct {
	cfg Config
}

// New creates the shell tool.
func New(cfg Config) *Tool {
	if cfg.MaxOutputBytes <= 0 {
		cfg.MaxOutputBytes = defaultMaxOutput
	}
	return &Tool{cfg: cfg}
}

// Name returns "shell".
func (t *Tool) Name() string { return toolName }

// Build validates args and returns a one-shot invocation. The only
// required argument is "command", the line handed to the system shell.
func (t *Tool) Build(args map[string]any) (tool.Invocation, error) {
	command, _ := args["command"].(string)
	if command == "" {
		return nil, fmt.Errorf("shell: missing or empty \"command\" argument: %w", domain.ErrValidation)
	}
	return &Invocation{cfg: t.cfg, command: command}, nil
}

// Invocation is one shell command ready to run.
type Invocation struct {
	cfg     Config
	command string

	mu     sync.Mutex
	proc   *toolcall.Process
	exited bool
}

// ShouldConfirmExecute requests a confirmation when the tool is
// configured to always confirm.
func (i *Invocation) ShouldConfirmExecute(context.Context) (*tool.Confirmation, error) {
	if !i.cfg.AlwaysConfirm {
		return nil, nil
	}
	return &tool.Confirmation{ProposedAction: "run: " + i.command}, nil
}

// Description returns the command line.
func (i *Invocation) Description() string { return "shell: " + i.command }

// Process returns the handle of the spawned process, or nil before Start.
func (i *Invocation) Process() *toolcall.Process {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.proc
}

// Execute spawns the command and waits for it. Cancellation is not
// handled here: the scheduler reaps the process group, which makes Wait
// return. A non-zero exit is the tool's own failure and comes back as an
// error carrying the output tail.
func (i *Invocation) Execute(_ context.Context) (*toolcall.Result, error) {
	name, argv := shellCommand(i.command)
	cmd := exec.Command(name, argv...)
	cmd.Dir = i.cfg.WorkDir
	cmd.Env = i.cfg.Env

	var buf bytes.Buffer
	out := &capWriter{w: &buf, limit: i.cfg.MaxOutputBytes}
	cmd.Stdout = out
	cmd.Stderr = out
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("shell: start: %w", err)
	}

	i.mu.Lock()
	i.proc = &toolcall.Process{
		PID: cmd.Process.Pid,
		IsExited: func() bool {
			i.mu.Lock()
			defer i.mu.Unlock()
			return i.exited
		},
	}
	i.mu.Unlock()

	err := cmd.Wait()

	i.mu.Lock()
	i.exited = true
	i.mu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("shell: %w: %s", err, tail(buf.Bytes(), 2048))
	}
	return &toolcall.Result{Content: buf.String()}, nil
}

// capWriter caps total bytes written, silently dropping the excess.
type capWriter struct {
	w       *bytes.Buffer
	limit   int
	written int
}

func (c *capWriter) Write(p []byte) (int, error) {
	n := len(p)
	if c.written < c.limit {
		room := c.limit - c.written
		if room > n {
			room = n
		}
		c.w.Write(p[:room])
		c.written += room
	}
	return n, nil
}

// tail returns the last max bytes of b as a string.
func tail(b []byte, max int) string {
	if len(b) <= max {
		return string(b)
	}
	return string(b[len(b)-max:])
}
