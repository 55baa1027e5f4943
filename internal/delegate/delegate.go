// Package delegate turns agent definitions into schedulable tools. A
// local definition runs a nested model/tool loop in-process under its own
// rule set and budgets; a remote definition drives a task on a network
// agent. Either way the sub-agent appears to the outer scheduler as one
// tool call, and any confirmation raised inside surfaces on the outer bus
// under the outer call's correlation ID.
package delegate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Strob0t/Overseer/internal/adapter/a2a"
	"github.com/Strob0t/Overseer/internal/domain"
	"github.com/Strob0t/Overseer/internal/domain/agent"
	"github.com/Strob0t/Overseer/internal/domain/policy"
	"github.com/Strob0t/Overseer/internal/domain/toolcall"
	"github.com/Strob0t/Overseer/internal/port/bus"
	"github.com/Strob0t/Overseer/internal/port/model"
	"github.com/Strob0t/Overseer/internal/port/tool"
	"github.com/Strob0t/Overseer/internal/resilience"
	"github.com/Strob0t/Overseer/internal/scheduler"
)

// remoteTasker is the slice of the task-protocol client the remote
// runner needs.
type remoteTasker interface {
	SendMessage(ctx context.Context, taskID string, msg a2a.Message) (*a2a.Task, error)
	GetTask(ctx context.Context, taskID string) (*a2a.Task, error)
	CancelTask(ctx context.Context, taskID string) (*a2a.Task, error)
}

// Config holds delegation settings.
type Config struct {
	// Inner is the scheduler configuration for local sub-agent loops.
	Inner scheduler.Config

	// ApprovalTimeout bounds confirmation waits raised by remote tasks.
	ApprovalTimeout time.Duration

	// PollInterval is the remote task polling cadence.
	PollInterval time.Duration

	// RemoteToken is the bearer token sent to remote agents.
	RemoteToken string

	// RuleSets resolves a local definition's rule-set name. A definition
	// naming no rule set gets Default.
	RuleSets map[string]policy.RuleSet

	// Default is the rule set for local agents that name none.
	Default policy.RuleSet
}

// Delegator builds sub-agent tools over a shared bus, model client and
// tool registry.
type Delegator struct {
	cfg      Config
	bus      bus.Bus
	model    model.Client
	registry *tool.Registry
	breaker  *resilience.Breaker
	log      *slog.Logger

	// newClient is swappable for tests.
	newClient func(url string) remoteTasker
}

// New creates a Delegator. registry is the outer tool registry; local
// definitions draw their tool subsets from it and register themselves
// into it.
func New(cfg Config, b bus.Bus, mc model.Client, registry *tool.Registry, log *slog.Logger) *Delegator {
	if cfg.ApprovalTimeout <= 0 {
		cfg.ApprovalTimeout = 60 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if log == nil {
		log = slog.Default()
	}
	d := &Delegator{
		cfg:      cfg,
		bus:      b,
		model:    mc,
		registry: registry,
		breaker:  resilience.NewBreaker(5, 30*time.Second),
		log:      log,
	}
	d.newClient = func(url string) remoteTasker {
		c := a2a.NewClient(url, cfg.RemoteToken)
		c.SetBreaker(d.breaker)
		return c
	}
	return d
}

// Register validates a definition and registers it as a tool named
// "agent:<name>" on the shared registry.
func (d *Delegator) Register(def agent.Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	if def.Kind == agent.KindLocal && def.Local.RuleSet != "" {
		if _, ok := d.cfg.RuleSets[def.Local.RuleSet]; !ok {
			return fmt.Errorf("agent %s: unknown rule set %q: %w",
				def.Name, def.Local.RuleSet, domain.ErrValidation)
		}
	}
	d.registry.Register(&Tool{def: def, d: d})
	return nil
}

// Tool adapts one agent definition to the tool port.
type Tool struct {
	def agent.Definition
	d   *Delegator
}

// Name returns "agent:<name>".
func (t *Tool) Name() string { return t.def.ToolName() }

// Build validates args; the single required argument is "prompt".
func (t *Tool) Build(args map[string]any) (tool.Invocation, error) {
	prompt, _ := args["prompt"].(string)
	if prompt == "" {
		return nil, fmt.Errorf("agent %s: missing or empty \"prompt\" argument: %w",
			t.def.Name, domain.ErrValidation)
	}
	return &invocation{def: t.def, d: t.d, prompt: prompt}, nil
}

type invocation struct {
	def    agent.Definition
	d      *Delegator
	prompt string
}

// ShouldConfirmExecute declines the extra gate; delegation is governed by
// policy rules on the "agent:*" tool names.
func (i *invocation) ShouldConfirmExecute(context.Context) (*tool.Confirmation, error) {
	return nil, nil
}

// Description names the target agent.
func (i *invocation) Description() string {
	return fmt.Sprintf("delegate to %s agent %q", i.def.Kind, i.def.Name)
}

// Execute runs the delegation to completion.
func (i *invocation) Execute(ctx context.Context) (*toolcall.Result, error) {
	outerID, _ := toolcall.IDFromContext(ctx)
	switch i.def.Kind {
	case agent.KindLocal:
		return i.d.runLocal(ctx, i.def, i.prompt, outerID)
	default:
		return i.d.runRemote(ctx, i.def, i.prompt, outerID)
	}
}
