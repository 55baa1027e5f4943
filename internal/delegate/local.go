package delegate

import (
	"context"
	"encoding/json"
	"fmt"

	otelad "github.com/Strob0t/Overseer/internal/adapter/otel"
	"github.com/Strob0t/Overseer/internal/deadline"
	"github.com/Strob0t/Overseer/internal/domain"
	"github.com/Strob0t/Overseer/internal/domain/agent"
	"github.com/Strob0t/Overseer/internal/domain/toolcall"
	"github.com/Strob0t/Overseer/internal/port/model"
	"github.com/Strob0t/Overseer/internal/port/tool"
	"github.com/Strob0t/Overseer/internal/scheduler"
)

// runLocal drives an in-process model/tool loop under the definition's
// own rule set, turn cap and wall-clock budget. The loop's scheduler
// publishes on the confirmation bridge, so any inner approval reaches the
// outer bus under the delegation's correlation ID.
func (d *Delegator) runLocal(ctx context.Context, def agent.Definition, prompt, outerID string) (*toolcall.Result, error) {
	ctx, span := otelad.StartDelegationSpan(ctx, def.Name, string(def.Kind))
	defer span.End()
	lc := def.Local

	rules := d.cfg.Default
	if lc.RuleSet != "" {
		rules = d.cfg.RuleSets[lc.RuleSet]
	}

	inner := scheduler.New(d.cfg.Inner, newConfirmBridge(d.bus, outerID),
		d.subRegistry(lc.Tools), rules, scheduler.WithLogger(d.log))
	defer inner.Close()

	timer := deadline.New(lc.MaxTime)
	defer timer.Abort("finished")
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-timer.Done():
			cancel()
		case <-runCtx.Done():
		}
	}()

	var messages []model.Message
	if lc.SystemPrompt != "" {
		messages = append(messages, model.Message{Role: "system", Content: lc.SystemPrompt})
	}
	messages = append(messages, model.Message{Role: "user", Content: prompt})

	for turn := 0; turn < lc.MaxTurns; turn++ {
		out, err := d.model.Complete(runCtx, lc.Model, messages)
		if err != nil {
			if timer.Fired() {
				return nil, fmt.Errorf("agent %s: %s: %w", def.Name, timer.Reason(), domain.ErrTimeout)
			}
			return nil, fmt.Errorf("agent %s: model: %w", def.Name, err)
		}
		if out.Text != "" {
			messages = append(messages, model.Message{Role: "assistant", Content: out.Text})
		}
		if len(out.ToolRequests) == 0 {
			return &toolcall.Result{Content: out.Text}, nil
		}

		reqs := make([]toolcall.Request, len(out.ToolRequests))
		for i, tr := range out.ToolRequests {
			reqs[i] = toolcall.Request{ID: tr.ID, Name: tr.Name, Args: tr.Args}
		}
		calls, err := inner.ScheduleBatch(runCtx, scheduler.Batch{Requests: reqs})
		if err != nil {
			return nil, fmt.Errorf("agent %s: batch: %w", def.Name, err)
		}
		for _, c := range calls {
			messages = append(messages, model.Message{Role: "tool", Content: callContent(c)})
		}
	}
	return nil, fmt.Errorf("agent %s: exhausted %d turns without a final answer", def.Name, lc.MaxTurns)
}

// subRegistry narrows the outer registry to the definition's tool list.
// An empty list grants the full registry.
func (d *Delegator) subRegistry(names []string) *tool.Registry {
	if len(names) == 0 {
		return d.registry
	}
	reg := tool.NewRegistry()
	for _, name := range names {
		if t, ok := d.registry.Lookup(name); ok {
			reg.Register(t)
		}
	}
	return reg
}

// callContent renders a finished call as transcript content for the
// inner model.
func callContent(c toolcall.ToolCall) string {
	payload := map[string]any{"call_id": c.ID, "tool": c.Name, "status": string(c.Status)}
	switch {
	case c.Result != nil && c.Result.Error != "":
		payload["error"] = c.Result.Error
	case c.Result != nil:
		payload["content"] = c.Result.Content
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%s: %s", c.Name, c.Status)
	}
	return string(data)
}
