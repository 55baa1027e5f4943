package delegate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/Overseer/internal/adapter/a2a"
	otelad "github.com/Strob0t/Overseer/internal/adapter/otel"
	"github.com/Strob0t/Overseer/internal/domain/agent"
	"github.com/Strob0t/Overseer/internal/domain/toolcall"
	"github.com/Strob0t/Overseer/internal/port/bus"
)

// runRemote submits a task to a network agent and polls it to a terminal
// state. An input-required pause becomes a confirmation request on the
// outer bus; denial cancels the remote task.
func (d *Delegator) runRemote(ctx context.Context, def agent.Definition, prompt, outerID string) (*toolcall.Result, error) {
	ctx, span := otelad.StartDelegationSpan(ctx, def.Name, string(def.Kind))
	defer span.End()

	client := d.newClient(def.Remote.URL)
	taskID := uuid.NewString()
	task, err := client.SendMessage(ctx, taskID, a2a.UserMessage(prompt))
	if err != nil {
		d.log.Warn("remote submit failed",
			"agent", def.Name, "breaker", d.breaker.State(), "error", err)
		return nil, fmt.Errorf("agent %s: submit: %w", def.Name, err)
	}

	for {
		switch task.Status.State {
		case a2a.TaskCompleted:
			return &toolcall.Result{Content: task.Output()}, nil

		case a2a.TaskFailed:
			return nil, fmt.Errorf("agent %s: remote task failed: %s", def.Name, task.Output())

		case a2a.TaskCanceled:
			return nil, fmt.Errorf("agent %s: remote task canceled", def.Name)

		case a2a.TaskInputRequired:
			question := "remote agent requests input"
			if task.Status.Message != nil && task.Status.Message.Text() != "" {
				question = task.Status.Message.Text()
			}
			approved, err := d.askOuter(ctx, outerID, def.ToolName(), question)
			if err != nil {
				_, _ = client.CancelTask(context.WithoutCancel(ctx), taskID)
				return nil, fmt.Errorf("agent %s: confirmation: %w", def.Name, err)
			}
			if !approved {
				_, _ = client.CancelTask(context.WithoutCancel(ctx), taskID)
				return nil, fmt.Errorf("agent %s: remote request declined: %s", def.Name, question)
			}
			task, err = client.SendMessage(ctx, taskID, a2a.UserMessage("approved"))
			if err != nil {
				return nil, fmt.Errorf("agent %s: resume: %w", def.Name, err)
			}
			continue
		}

		select {
		case <-ctx.Done():
			_, _ = client.CancelTask(context.WithoutCancel(ctx), taskID)
			return nil, ctx.Err()
		case <-time.After(d.cfg.PollInterval):
		}
		task, err = client.GetTask(ctx, taskID)
		if err != nil {
			return nil, fmt.Errorf("agent %s: poll: %w", def.Name, err)
		}
	}
}

// askOuter raises one confirmation on the outer bus and waits for the
// answer. Silence within the window resolves to denial.
func (d *Delegator) askOuter(ctx context.Context, correlationID, toolName, question string) (bool, error) {
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	resolved := make(chan bus.ConfirmationResponse, 1)
	cancel := d.bus.Subscribe(bus.KindConfirmationResolved, func(_ context.Context, msg bus.Message) {
		resp, ok := msg.Payload.(bus.ConfirmationResponse)
		if !ok || resp.CorrelationID != correlationID {
			return
		}
		select {
		case resolved <- resp:
		default:
		}
	})
	defer cancel()

	expiry := time.Now().Add(d.cfg.ApprovalTimeout)
	err := d.bus.Publish(ctx, bus.Message{
		Kind:          bus.KindConfirmationRequested,
		CorrelationID: correlationID,
		Payload: bus.ConfirmationRequest{
			CorrelationID:  correlationID,
			ToolName:       toolName,
			ProposedAction: question,
			Expiry:         &expiry,
		},
	})
	if err != nil {
		return false, err
	}

	t := time.NewTimer(time.Until(expiry))
	defer t.Stop()
	select {
	case resp := <-resolved:
		return resp.Approved && !resp.Cancelled, nil
	case <-t.C:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
