// Package toolcall defines the ToolCall domain entity and its status
// state machine. A ToolCall is one requested invocation of a named
// capability; it is created by the scheduler, mutated only by the
// scheduler, and dropped from the active set once its terminal status has
// been reported upstream.
package toolcall

import (
	"os"
	"time"
)

// Status represents the lifecycle state of a tool call.
type Status string

const (
	StatusValidating       Status = "validating"
	StatusAwaitingApproval Status = "awaiting_approval"
	StatusScheduled        Status = "scheduled"
	StatusExecuting        Status = "executing"
	StatusSuccess          Status = "success"
	StatusError            Status = "error"
	StatusCancelled        Status = "cancelled"
)

// Terminal reports whether s is a terminal status.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusError || s == StatusCancelled
}

// Result is the outcome of a finished call. It is set if and only if the
// call reached success or error.
type Result struct {
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Process is the optional handle to a spawned OS process, present only
// for shell-backed tools. The PTY field, when non-nil, exposes the
// terminal's native kill path.
type Process struct {
	PID      int
	IsExited func() bool
	PTY      interface{ Kill(sig os.Signal) error }
}

// ToolCall is one requested invocation.
type ToolCall struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Args       map[string]any `json:"args,omitempty"`
	MatcherKey string         `json:"matcher_key,omitempty"`
	Status     Status         `json:"status"`
	Result     *Result        `json:"result,omitempty"`
	Process    *Process       `json:"-"`
	CreatedAt  time.Time      `json:"created_at"`
	StartedAt  time.Time      `json:"started_at,omitzero"`
	EndedAt    time.Time      `json:"ended_at,omitzero"`
}

// Request is a raw invocation request from the model layer. Args are
// opaque JSON-compatible data; the scheduler does not interpret them
// beyond matcher serialization and hand-off to the target tool.
type Request struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// New creates a ToolCall in the validating state.
func New(id, name string, args map[string]any) *ToolCall {
	return &ToolCall{
		ID:        id,
		Name:      name,
		Args:      args,
		Status:    StatusValidating,
		CreatedAt: time.Now(),
	}
}

// Snapshot returns a value copy safe to hand to other components. The
// process handle is deliberately omitted; only the scheduler may reap.
func (c *ToolCall) Snapshot() ToolCall {
	cp := *c
	cp.Process = nil
	if c.Result != nil {
		r := *c.Result
		cp.Result = &r
	}
	return cp
}
