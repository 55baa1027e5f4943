// Package agent defines the AgentDefinition entity: a sub-agent that the
// scheduler can invoke as if it were a single tool. A definition is a
// closed tagged union; exactly one of Local or Remote is set.
package agent

import (
	"fmt"
	"time"

	"github.com/Strob0t/Overseer/internal/domain"
)

// Kind discriminates the definition union.
type Kind string

const (
	KindLocal  Kind = "local"
	KindRemote Kind = "remote"
)

// Local configures an in-process model/tool loop.
type Local struct {
	Model        string        `json:"model" yaml:"model"`
	SystemPrompt string        `json:"system_prompt,omitempty" yaml:"system_prompt,omitempty"`
	Tools        []string      `json:"tools,omitempty" yaml:"tools,omitempty"`
	RuleSet      string        `json:"rule_set,omitempty" yaml:"rule_set,omitempty"`
	MaxTurns     int           `json:"max_turns" yaml:"max_turns"`
	MaxTime      time.Duration `json:"max_time" yaml:"max_time"`
}

// Remote addresses a network agent speaking the task protocol. Its
// execution semantics are opaque beyond the task-state contract; only the
// input schema and address are known.
type Remote struct {
	URL         string         `json:"url" yaml:"url"`
	InputSchema map[string]any `json:"input_schema,omitempty" yaml:"input_schema,omitempty"`
}

// Definition describes an invocable sub-agent.
type Definition struct {
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Kind        Kind    `json:"kind" yaml:"kind"`
	Local       *Local  `json:"local,omitempty" yaml:"local,omitempty"`
	Remote      *Remote `json:"remote,omitempty" yaml:"remote,omitempty"`
}

// ToolName returns the tool identifier under which the definition is
// registered with the scheduler.
func (d *Definition) ToolName() string {
	return "agent:" + d.Name
}

// Validate checks the union invariant: exactly one variant, matching Kind.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("agent name is required: %w", domain.ErrValidation)
	}
	switch d.Kind {
	case KindLocal:
		if d.Local == nil || d.Remote != nil {
			return fmt.Errorf("agent %s: kind local requires exactly the local variant: %w", d.Name, domain.ErrValidation)
		}
		if d.Local.MaxTurns <= 0 {
			return fmt.Errorf("agent %s: max_turns must be positive: %w", d.Name, domain.ErrValidation)
		}
		if d.Local.MaxTime <= 0 {
			return fmt.Errorf("agent %s: max_time must be positive: %w", d.Name, domain.ErrValidation)
		}
	case KindRemote:
		if d.Remote == nil || d.Local != nil {
			return fmt.Errorf("agent %s: kind remote requires exactly the remote variant: %w", d.Name, domain.ErrValidation)
		}
		if d.Remote.URL == "" {
			return fmt.Errorf("agent %s: remote url is required: %w", d.Name, domain.ErrValidation)
		}
	default:
		return fmt.Errorf("agent %s: unknown kind %q: %w", d.Name, d.Kind, domain.ErrValidation)
	}
	return nil
}
