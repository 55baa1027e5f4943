// Package tool defines the invocation contract every schedulable
// capability satisfies. Concrete tools, MCP-provided tools, and delegated
// sub-agent runs all look identical to the scheduler through this
// interface; it never needs runtime type inspection.
package tool

import (
	"context"
	"fmt"
	"sync"

	"github.com/Strob0t/Overseer/internal/domain"
	"github.com/Strob0t/Overseer/internal/domain/toolcall"
)

// Confirmation describes what a tool wants the human to approve, beyond
// what the policy layer already decided.
type Confirmation struct {
	ProposedAction string `json:"proposed_action"`
}

// Invocation is a single built invocation, ready to execute once.
type Invocation interface {
	// ShouldConfirmExecute reports whether this invocation wants an
	// explicit confirmation even when policy allows it. A nil
	// Confirmation means no extra gate.
	ShouldConfirmExecute(ctx context.Context) (*Confirmation, error)

	// Execute runs the invocation to completion. A tool's own failure is
	// returned as an error and captured as data by the scheduler; it is
	// never fatal to the session.
	Execute(ctx context.Context) (*toolcall.Result, error)

	// Description is a short human-readable summary of what will run.
	Description() string
}

// ProcessReporter is optionally implemented by invocations that spawn an
// OS process. The scheduler uses the handle to reap the process tree when
// the call is cancelled.
type ProcessReporter interface {
	Process() *toolcall.Process
}

// Tool builds invocations for a named capability. Build validates the
// raw argument map against the tool's own schema.
type Tool interface {
	Name() string
	Build(args map[string]any) (Invocation, error)
}

// Registry holds the tools available to a session.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds or replaces a tool by name.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Build resolves name and builds an invocation from args. An unknown
// tool name is a validation error, reported to the model as data.
func (r *Registry) Build(name string, args map[string]any) (Invocation, error) {
	t, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown tool %q: %w", name, domain.ErrValidation)
	}
	inv, err := t.Build(args)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", name, err)
	}
	return inv, nil
}

// Names returns the registered tool names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}
