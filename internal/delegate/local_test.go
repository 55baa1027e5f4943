package delegate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Strob0t/Overseer/internal/adapter/membus"
	"github.com/Strob0t/Overseer/internal/domain"
	"github.com/Strob0t/Overseer/internal/domain/agent"
	"github.com/Strob0t/Overseer/internal/domain/policy"
	"github.com/Strob0t/Overseer/internal/domain/toolcall"
	"github.com/Strob0t/Overseer/internal/port/bus"
	"github.com/Strob0t/Overseer/internal/port/model"
	"github.com/Strob0t/Overseer/internal/port/tool"
	"github.com/Strob0t/Overseer/internal/scheduler"
)

type stubInvocation struct {
	content string
}

func (i *stubInvocation) ShouldConfirmExecute(context.Context) (*tool.Confirmation, error) {
	return nil, nil
}

func (i *stubInvocation) Execute(context.Context) (*toolcall.Result, error) {
	return &toolcall.Result{Content: i.content}, nil
}

func (i *stubInvocation) Description() string { return i.content }

type stubTool struct {
	name    string
	content string
}

func (t *stubTool) Name() string { return t.name }

func (t *stubTool) Build(map[string]any) (tool.Invocation, error) {
	return &stubInvocation{content: t.content}, nil
}

// scriptModel replays a fixed sequence of turns.
type scriptModel struct {
	mu    sync.Mutex
	turns []model.Turn
}

func (m *scriptModel) Complete(context.Context, string, []model.Message) (*model.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.turns) == 0 {
		return &model.Turn{Text: "nothing left"}, nil
	}
	t := m.turns[0]
	m.turns = m.turns[1:]
	return &t, nil
}

func innerConfig() scheduler.Config {
	return scheduler.Config{
		MaxParallel:     2,
		ApprovalTimeout: time.Second,
		ToolDeadline:    time.Second,
	}
}

func TestLocalDelegationBridgesConfirmations(t *testing.T) {
	b := membus.New()
	reg := tool.NewRegistry()
	reg.Register(&stubTool{name: "write", content: "written"})

	mc := &scriptModel{turns: []model.Turn{
		{ToolRequests: []model.ToolRequest{{ID: "in-1", Name: "write", Args: map[string]any{"path": "/tmp/x"}}}},
		{Text: "done writing"},
	}}

	d := New(Config{
		Inner: innerConfig(),
		// The "careful" rule set has no rules, so every inner call asks.
		RuleSets: map[string]policy.RuleSet{"careful": {Name: "careful"}},
	}, b, mc, reg, nil)

	err := d.Register(agent.Definition{
		Name: "writer",
		Kind: agent.KindLocal,
		Local: &agent.Local{
			Model:    "test-model",
			Tools:    []string{"write"},
			RuleSet:  "careful",
			MaxTurns: 3,
			MaxTime:  5 * time.Second,
		},
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	var mu sync.Mutex
	var seenIDs []string
	b.Subscribe(bus.KindConfirmationRequested, func(_ context.Context, msg bus.Message) {
		mu.Lock()
		seenIDs = append(seenIDs, msg.CorrelationID)
		mu.Unlock()
		go func() {
			_ = b.Publish(context.Background(), bus.Message{
				Kind:          bus.KindConfirmationResolved,
				CorrelationID: msg.CorrelationID,
				Payload: bus.ConfirmationResponse{
					CorrelationID: msg.CorrelationID,
					Approved:      true,
				},
			})
		}()
	})

	outerRules := policy.RuleSet{
		Name:  "outer",
		Rules: []policy.Rule{{ToolPattern: "agent:*", Decision: policy.DecisionAllow}},
	}
	outer := scheduler.New(innerConfig(), b, reg, outerRules)
	defer outer.Close()

	out, err := outer.ScheduleBatch(context.Background(), scheduler.Batch{Requests: []toolcall.Request{
		{ID: "outer-1", Name: "agent:writer", Args: map[string]any{"prompt": "write it"}},
	}})
	if err != nil {
		t.Fatalf("ScheduleBatch: %v", err)
	}
	if out[0].Status != toolcall.StatusSuccess {
		t.Fatalf("status %s, want success (result: %+v)", out[0].Status, out[0].Result)
	}
	if out[0].Result.Content != "done writing" {
		t.Errorf("content %q", out[0].Result.Content)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seenIDs) != 1 {
		t.Fatalf("saw %d confirmation requests, want 1", len(seenIDs))
	}
	if seenIDs[0] != "outer-1" {
		t.Errorf("inner confirmation surfaced under %q, want the outer call id", seenIDs[0])
	}
}

func TestLocalDelegationAnswersConcurrentAsks(t *testing.T) {
	b := membus.New()
	reg := tool.NewRegistry()
	reg.Register(&stubTool{name: "write", content: "written"})
	reg.Register(&stubTool{name: "deploy", content: "deployed"})

	// One turn parks two ask-gated calls at once; each answer must reach
	// the call that asked, not just the latest one.
	mc := &scriptModel{turns: []model.Turn{
		{ToolRequests: []model.ToolRequest{
			{ID: "in-1", Name: "write", Args: map[string]any{"path": "/tmp/a"}},
			{ID: "in-2", Name: "deploy", Args: map[string]any{"env": "stage"}},
		}},
		{Text: "both done"},
	}}

	d := New(Config{
		Inner:    innerConfig(),
		RuleSets: map[string]policy.RuleSet{"careful": {Name: "careful"}},
	}, b, mc, reg, nil)

	if err := d.Register(agent.Definition{
		Name: "ops",
		Kind: agent.KindLocal,
		Local: &agent.Local{
			Model:    "test-model",
			RuleSet:  "careful",
			MaxTurns: 3,
			MaxTime:  5 * time.Second,
		},
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	b.Subscribe(bus.KindConfirmationRequested, func(_ context.Context, msg bus.Message) {
		go func() {
			time.Sleep(10 * time.Millisecond)
			_ = b.Publish(context.Background(), bus.Message{
				Kind:          bus.KindConfirmationResolved,
				CorrelationID: msg.CorrelationID,
				Payload: bus.ConfirmationResponse{
					CorrelationID: msg.CorrelationID,
					Approved:      true,
				},
			})
		}()
	})

	var mu sync.Mutex
	var cancelled []string
	b.Subscribe(bus.KindToolCallStatus, func(_ context.Context, msg bus.Message) {
		st := msg.Payload.(bus.ToolCallStatus)
		if st.Status == string(toolcall.StatusCancelled) {
			mu.Lock()
			cancelled = append(cancelled, st.CallID)
			mu.Unlock()
		}
	})

	tl, _ := reg.Lookup("agent:ops")
	inv, err := tl.Build(map[string]any{"prompt": "ship it"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	// Tag the context as an outer call so the inner questions surface
	// under its ID, the way the outer scheduler would run this.
	ctx := toolcall.ContextWithID(context.Background(), "outer-9")
	start := time.Now()
	res, err := inv.Execute(ctx)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Content != "both done" {
		t.Errorf("content %q", res.Content)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(cancelled) != 0 {
		t.Errorf("approved calls were cancelled: %v", cancelled)
	}
	if elapsed := time.Since(start); elapsed >= innerConfig().ApprovalTimeout {
		t.Errorf("run took %v, an approved sibling sat until expiry", elapsed)
	}
}

func TestLocalDelegationTurnExhaustion(t *testing.T) {
	b := membus.New()
	reg := tool.NewRegistry()
	reg.Register(&stubTool{name: "read", content: "data"})

	// The model never stops asking for tools.
	mc := &scriptModel{turns: []model.Turn{
		{ToolRequests: []model.ToolRequest{{Name: "read"}}},
		{ToolRequests: []model.ToolRequest{{Name: "read"}}},
		{ToolRequests: []model.ToolRequest{{Name: "read"}}},
	}}

	d := New(Config{
		Inner:   innerConfig(),
		Default: policy.RuleSet{Name: "open", Rules: []policy.Rule{{ToolPattern: "*", Decision: policy.DecisionAllow}}},
	}, b, mc, reg, nil)

	def := agent.Definition{
		Name: "loop",
		Kind: agent.KindLocal,
		Local: &agent.Local{
			Model:    "test-model",
			MaxTurns: 2,
			MaxTime:  5 * time.Second,
		},
	}
	if err := d.Register(def); err != nil {
		t.Fatalf("Register: %v", err)
	}

	tl, _ := reg.Lookup("agent:loop")
	inv, err := tl.Build(map[string]any{"prompt": "go"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	_, err = inv.Execute(context.Background())
	if err == nil || !strings.Contains(err.Error(), "exhausted 2 turns") {
		t.Fatalf("expected turn exhaustion, got %v", err)
	}
}

func TestLocalDelegationTimeBudget(t *testing.T) {
	b := membus.New()
	reg := tool.NewRegistry()

	// A model that blocks until its context dies.
	slow := modelFunc(func(ctx context.Context, _ string, _ []model.Message) (*model.Turn, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	d := New(Config{Inner: innerConfig()}, b, slow, reg, nil)
	def := agent.Definition{
		Name: "slow",
		Kind: agent.KindLocal,
		Local: &agent.Local{
			Model:    "test-model",
			MaxTurns: 2,
			MaxTime:  30 * time.Millisecond,
		},
	}
	if err := d.Register(def); err != nil {
		t.Fatalf("Register: %v", err)
	}

	tl, _ := reg.Lookup("agent:slow")
	inv, _ := tl.Build(map[string]any{"prompt": "go"})
	_, err := inv.Execute(context.Background())
	if err == nil || !strings.Contains(err.Error(), "deadline expired") {
		t.Fatalf("expected time budget expiry, got %v", err)
	}
}

type modelFunc func(ctx context.Context, model string, messages []model.Message) (*model.Turn, error)

func (f modelFunc) Complete(ctx context.Context, m string, msgs []model.Message) (*model.Turn, error) {
	return f(ctx, m, msgs)
}

func TestRegisterRejectsUnknownRuleSet(t *testing.T) {
	d := New(Config{Inner: innerConfig()}, membus.New(), &scriptModel{}, tool.NewRegistry(), nil)
	err := d.Register(agent.Definition{
		Name: "x",
		Kind: agent.KindLocal,
		Local: &agent.Local{
			Model: "m", RuleSet: "missing", MaxTurns: 1, MaxTime: time.Second,
		},
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBuildRequiresPrompt(t *testing.T) {
	reg := tool.NewRegistry()
	d := New(Config{Inner: innerConfig()}, membus.New(), &scriptModel{}, reg, nil)
	if err := d.Register(agent.Definition{
		Name: "x",
		Kind: agent.KindLocal,
		Local: &agent.Local{Model: "m", MaxTurns: 1, MaxTime: time.Second},
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	tl, _ := reg.Lookup("agent:x")
	if _, err := tl.Build(map[string]any{}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
