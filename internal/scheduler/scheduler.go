// Package scheduler implements the tool-call state machine: it accepts
// raw invocation requests, consults the policy engine, gates calls behind
// bus confirmations when required, runs approved calls concurrently under
// their deadline timers, and aggregates results back in request order.
//
// The scheduler is the single writer of its ToolCall table. Every other
// component observes or influences it through the message bus or through
// read-only snapshots.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	otelad "github.com/Strob0t/Overseer/internal/adapter/otel"
	"github.com/Strob0t/Overseer/internal/deadline"
	"github.com/Strob0t/Overseer/internal/domain"
	"github.com/Strob0t/Overseer/internal/domain/policy"
	"github.com/Strob0t/Overseer/internal/domain/toolcall"
	"github.com/Strob0t/Overseer/internal/port/bus"
	"github.com/Strob0t/Overseer/internal/port/tool"
)

// Config holds scheduler tunables.
type Config struct {
	// MaxParallel bounds how many calls execute concurrently.
	MaxParallel int

	// ApprovalTimeout is the expiry window for confirmation requests.
	// An unanswered request resolves to denial.
	ApprovalTimeout time.Duration

	// ToolDeadline is the execution budget per call. The budget does not
	// advance while a call is awaiting approval.
	ToolDeadline time.Duration
}

// DefaultConfig returns sensible defaults for an interactive session.
func DefaultConfig() Config {
	return Config{
		MaxParallel:     4,
		ApprovalTimeout: 60 * time.Second,
		ToolDeadline:    5 * time.Minute,
	}
}

// DecisionCache caches policy evaluations keyed by rule-set generation,
// tool name and matcher key. Safe because evaluation is pure.
type DecisionCache interface {
	Get(key string) (policy.EvaluationResult, bool)
	Set(key string, res policy.EvaluationResult)
}

// Scheduler owns the active ToolCall table and drives every call through
// the status graph.
type Scheduler struct {
	cfg      Config
	bus      bus.Bus
	registry *tool.Registry
	cache    DecisionCache
	metrics  *otelad.Metrics
	log      *slog.Logger

	mu      sync.Mutex
	rules   policy.RuleSet
	calls   map[string]*toolcall.ToolCall
	timers  map[string]*deadline.Timer
	pending []*pendingConfirmation

	abortOnce sync.Once
	abort     chan struct{}

	unsubscribe func()
}

// Option configures optional scheduler collaborators.
type Option func(*Scheduler)

// WithDecisionCache installs a policy decision cache.
func WithDecisionCache(c DecisionCache) Option {
	return func(s *Scheduler) { s.cache = c }
}

// WithMetrics installs telemetry instruments.
func WithMetrics(m *otelad.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// WithLogger installs a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// New creates a Scheduler bound to the given bus, tool registry and rule
// set, and subscribes it to confirmation responses.
func New(cfg Config, b bus.Bus, registry *tool.Registry, rules policy.RuleSet, opts ...Option) *Scheduler {
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = DefaultConfig().MaxParallel
	}
	if cfg.ApprovalTimeout <= 0 {
		cfg.ApprovalTimeout = DefaultConfig().ApprovalTimeout
	}
	if cfg.ToolDeadline <= 0 {
		cfg.ToolDeadline = DefaultConfig().ToolDeadline
	}

	s := &Scheduler{
		cfg:      cfg,
		bus:      b,
		registry: registry,
		rules:    rules,
		calls:    make(map[string]*toolcall.ToolCall),
		timers:   make(map[string]*deadline.Timer),
		abort:    make(chan struct{}),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.unsubscribe = b.Subscribe(bus.KindConfirmationResolved, s.onConfirmationResolved)
	return s
}

// Close cancels the scheduler's bus subscription.
func (s *Scheduler) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// Abort fires the session-wide abort signal. Every awaiting or executing
// call resolves to cancelled; the signal is permanent.
func (s *Scheduler) Abort() {
	s.abortOnce.Do(func() { close(s.abort) })
}

// SetRuleSet replaces the active rule set. Rule mutation happens strictly
// between batches; the generation bump invalidates cached decisions from
// earlier rule sets.
func (s *Scheduler) SetRuleSet(rs policy.RuleSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs.Generation = s.rules.Generation + 1
	s.rules = rs
}

// RuleSet returns the rule set active for a starting batch.
func (s *Scheduler) RuleSet() policy.RuleSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rules
}

// Call returns a read-only snapshot of an active call.
func (s *Scheduler) Call(id string) (toolcall.ToolCall, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.calls[id]
	if !ok {
		return toolcall.ToolCall{}, false
	}
	return c.Snapshot(), true
}

// track registers a call in the active table.
func (s *Scheduler) track(c *toolcall.ToolCall) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[c.ID] = c
}

// drop removes a call once its terminal status has been reported.
func (s *Scheduler) drop(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.calls, id)
	delete(s.timers, id)
}

// ExtendDeadline adds delta to the execution budget of an active call.
// Legal while the call is awaiting approval, scheduled or executing; the
// extension takes effect immediately on a running clock.
func (s *Scheduler) ExtendDeadline(id string, delta time.Duration) error {
	s.mu.Lock()
	t, ok := s.timers[id]
	s.mu.Unlock()
	if !ok {
		return domain.ErrNotFound
	}
	t.Extend(delta)
	return nil
}

// publishStatus announces a lifecycle transition on the bus.
func (s *Scheduler) publishStatus(ctx context.Context, c *toolcall.ToolCall) error {
	return s.bus.Publish(ctx, bus.Message{
		Kind:          bus.KindToolCallStatus,
		CorrelationID: c.ID,
		Payload: bus.ToolCallStatus{
			CallID: c.ID,
			Name:   c.Name,
			Status: string(c.Status),
		},
	})
}
