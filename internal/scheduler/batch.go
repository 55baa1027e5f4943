package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	otelad "github.com/Strob0t/Overseer/internal/adapter/otel"
	"github.com/Strob0t/Overseer/internal/deadline"
	"github.com/Strob0t/Overseer/internal/domain"
	"github.com/Strob0t/Overseer/internal/domain/policy"
	"github.com/Strob0t/Overseer/internal/domain/toolcall"
	"github.com/Strob0t/Overseer/internal/matcher"
	"github.com/Strob0t/Overseer/internal/port/bus"
	"github.com/Strob0t/Overseer/internal/port/tool"
)

// Batch is one model turn's worth of tool requests, scheduled together.
type Batch struct {
	Requests []toolcall.Request

	// AllOrNothing cancels every still-runnable call if any call in the
	// batch was denied, errored during validation, or had its
	// confirmation refused.
	AllOrNothing bool
}

// batchItem carries a call's per-batch working state between phases.
type batchItem struct {
	call    *toolcall.ToolCall
	inv     tool.Invocation
	timer   *deadline.Timer
	pending *pendingConfirmation
}

// ScheduleBatch drives a batch through the full lifecycle: validation and
// policy evaluation first, then every confirmation resolved before
// anything executes, then concurrent execution bounded by MaxParallel.
// It returns terminal snapshots in request order. A returned error is an
// infrastructure fault; tool failures come back as error-status snapshots.
func (s *Scheduler) ScheduleBatch(ctx context.Context, b Batch) ([]toolcall.ToolCall, error) {
	ctx, span := otelad.StartBatchSpan(ctx, uuid.NewString(), len(b.Requests))
	defer span.End()

	rules := s.RuleSet()
	items := make([]*batchItem, 0, len(b.Requests))
	for _, req := range b.Requests {
		it, err := s.admit(ctx, req, rules)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}

	// Every confirmation resolves before any call starts. Approvals are
	// awaited concurrently so the answering order does not matter.
	g, gctx := errgroup.WithContext(ctx)
	for _, it := range items {
		if it.pending == nil {
			continue
		}
		g.Go(func() error { return s.resolveApproval(gctx, it) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if b.AllOrNothing && s.anyRefused(items) {
		if err := s.cancelRunnable(ctx, items, "sibling call refused"); err != nil {
			return nil, err
		}
	}

	sem := semaphore.NewWeighted(int64(s.cfg.MaxParallel))
	eg, egctx := errgroup.WithContext(ctx)
	for _, it := range items {
		if s.status(it.call) != toolcall.StatusScheduled {
			continue
		}
		eg.Go(func() error {
			if err := sem.Acquire(egctx, 1); err != nil {
				return s.finish(egctx, it.call, toolcall.StatusCancelled, nil)
			}
			defer sem.Release(1)
			return s.executeCall(egctx, it)
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := make([]toolcall.ToolCall, len(items))
	for i, it := range items {
		s.mu.Lock()
		out[i] = it.call.Snapshot()
		s.mu.Unlock()
		s.drop(it.call.ID)
	}
	return out, nil
}

// admit runs one request through validation and policy. The returned item
// is either terminal (validation failure, policy denial), scheduled, or
// parked awaiting approval with a pending confirmation attached.
func (s *Scheduler) admit(ctx context.Context, req toolcall.Request, rules policy.RuleSet) (*batchItem, error) {
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	c := toolcall.New(id, req.Name, req.Args)
	c.MatcherKey = matcher.Serialize(req.Args)
	s.track(c)
	if s.metrics != nil {
		s.metrics.CallsScheduled.Add(ctx, 1)
	}
	it := &batchItem{call: c}

	inv, err := s.registry.Build(req.Name, req.Args)
	if err != nil {
		// Validation failures are data for the model, not faults.
		return it, s.finish(ctx, c, toolcall.StatusError, &toolcall.Result{Error: err.Error()})
	}
	it.inv = inv

	verdict := s.evaluate(rules, req.Name, c.MatcherKey)
	if err := s.publishDecision(ctx, c, verdict); err != nil {
		return nil, err
	}

	switch verdict.Decision {
	case policy.DecisionDeny:
		if s.metrics != nil {
			s.metrics.PolicyDenied.Add(ctx, 1)
		}
		return it, s.finish(ctx, c, toolcall.StatusError,
			&toolcall.Result{Error: fmt.Sprintf("%s: %s", domain.ErrPolicyDenied, verdict.Reason)})

	case policy.DecisionAllow:
		if s.metrics != nil {
			s.metrics.PolicyAllowed.Add(ctx, 1)
		}
		conf, err := inv.ShouldConfirmExecute(ctx)
		if err != nil {
			return it, s.finish(ctx, c, toolcall.StatusError, &toolcall.Result{Error: err.Error()})
		}
		if conf != nil {
			// The tool itself wants a human gate even though policy
			// allows it.
			return it, s.park(ctx, it, conf.ProposedAction)
		}
		it.timer = deadline.NewPaused(s.cfg.ToolDeadline)
		s.setTimer(c.ID, it.timer)
		if err := s.advance(ctx, c, toolcall.StatusScheduled); err != nil {
			return nil, err
		}
		return it, nil

	default: // policy.DecisionAsk
		if s.metrics != nil {
			s.metrics.PolicyAsked.Add(ctx, 1)
		}
		action := ""
		if conf, err := inv.ShouldConfirmExecute(ctx); err == nil && conf != nil {
			action = conf.ProposedAction
		}
		if action == "" {
			action = inv.Description()
		}
		return it, s.park(ctx, it, action)
	}
}

// park moves a call to awaiting_approval and publishes its confirmation
// request. The execution budget stays frozen for the whole wait.
func (s *Scheduler) park(ctx context.Context, it *batchItem, proposedAction string) error {
	c := it.call
	if err := s.advance(ctx, c, toolcall.StatusAwaitingApproval); err != nil {
		return err
	}
	it.timer = deadline.NewPaused(s.cfg.ToolDeadline)
	s.setTimer(c.ID, it.timer)

	expiry := time.Now().Add(s.cfg.ApprovalTimeout)
	p, err := s.enqueueConfirmation(ctx, bus.ConfirmationRequest{
		CorrelationID:  c.ID,
		ToolName:       c.Name,
		ArgsDigest:     c.MatcherKey,
		ProposedAction: proposedAction,
		Expiry:         &expiry,
	})
	if err != nil {
		return err
	}
	it.pending = p
	if s.metrics != nil {
		s.metrics.ConfirmationsRequested.Add(ctx, 1)
	}
	return nil
}

// resolveApproval blocks on one pending confirmation and applies the
// outcome. Refusal, expiry and session abort all resolve to cancelled.
func (s *Scheduler) resolveApproval(ctx context.Context, it *batchItem) error {
	cctx, span := otelad.StartConfirmationSpan(ctx, it.call.ID)
	approved, reason := s.awaitConfirmation(cctx, it.pending)
	span.End()

	if !approved {
		s.log.Info("confirmation refused",
			"call_id", it.call.ID, "tool", it.call.Name, "reason", reason)
		it.timer.Abort(reason)
		return s.finish(ctx, it.call, toolcall.StatusCancelled, nil)
	}
	return s.advance(ctx, it.call, toolcall.StatusScheduled)
}

// anyRefused reports whether any call in the batch ended in error or
// cancelled before execution began.
func (s *Scheduler) anyRefused(items []*batchItem) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range items {
		if it.call.Status.Terminal() {
			return true
		}
	}
	return false
}

// cancelRunnable cancels every call still in scheduled.
func (s *Scheduler) cancelRunnable(ctx context.Context, items []*batchItem, reason string) error {
	for _, it := range items {
		if s.status(it.call) != toolcall.StatusScheduled {
			continue
		}
		it.timer.Abort(reason)
		if err := s.finish(ctx, it.call, toolcall.StatusCancelled, nil); err != nil {
			return err
		}
	}
	return nil
}

// evaluate consults the decision cache before the rule set. The key folds
// in the rule-set generation, so a SetRuleSet between batches invalidates
// every earlier entry without flushing.
func (s *Scheduler) evaluate(rules policy.RuleSet, name, matcherKey string) policy.EvaluationResult {
	if s.cache == nil {
		return rules.Evaluate(name, matcherKey)
	}
	key := fmt.Sprintf("%d|%s|%s", rules.Generation, name, matcherKey)
	if res, ok := s.cache.Get(key); ok {
		return res
	}
	res := rules.Evaluate(name, matcherKey)
	s.cache.Set(key, res)
	return res
}

// publishDecision announces the policy verdict on the bus.
func (s *Scheduler) publishDecision(ctx context.Context, c *toolcall.ToolCall, v policy.EvaluationResult) error {
	return s.bus.Publish(ctx, bus.Message{
		Kind:          bus.KindPolicyDecision,
		CorrelationID: c.ID,
		Payload: bus.PolicyDecision{
			CorrelationID: c.ID,
			ToolName:      c.Name,
			Decision:      string(v.Decision),
			RuleSet:       v.RuleSet,
			Reason:        v.Reason,
		},
	})
}

// status reads a call's status under the table lock.
func (s *Scheduler) status(c *toolcall.ToolCall) toolcall.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.Status
}

// setTimer registers a call's deadline timer for ExtendDeadline lookups.
func (s *Scheduler) setTimer(id string, t *deadline.Timer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timers[id] = t
}

// advance applies a non-terminal transition under the table lock and
// announces it.
func (s *Scheduler) advance(ctx context.Context, c *toolcall.ToolCall, next toolcall.Status) error {
	s.mu.Lock()
	err := c.Advance(next)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.publishStatus(ctx, c)
}

// finish applies a terminal transition under the table lock, records
// metrics, and announces it.
func (s *Scheduler) finish(ctx context.Context, c *toolcall.ToolCall, next toolcall.Status, result *toolcall.Result) error {
	s.mu.Lock()
	err := c.Finish(next, result)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if s.metrics != nil {
		switch next {
		case toolcall.StatusSuccess:
			s.metrics.CallsSucceeded.Add(ctx, 1)
		case toolcall.StatusError:
			s.metrics.CallsFailed.Add(ctx, 1)
		case toolcall.StatusCancelled:
			s.metrics.CallsCancelled.Add(ctx, 1)
		}
	}
	return s.publishStatus(ctx, c)
}
