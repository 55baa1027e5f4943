package scheduler

import (
	"context"
	"errors"
	"time"

	otelad "github.com/Strob0t/Overseer/internal/adapter/otel"
	"github.com/Strob0t/Overseer/internal/domain"
	"github.com/Strob0t/Overseer/internal/domain/toolcall"
	"github.com/Strob0t/Overseer/internal/port/tool"
	"github.com/Strob0t/Overseer/internal/reaper"
)

// outcome is what one Execute run produced.
type outcome struct {
	result *toolcall.Result
	err    error
}

// executeCall runs one scheduled call to a terminal status. The deadline
// clock starts ticking only here; time spent awaiting approval never
// consumed budget. Cancellation by deadline, session abort or context
// finishes the call at once; the kill of any spawned process tree and
// the invocation goroutine wind down in the background, so a process
// that shrugs off signals can never hold up the batch result.
func (s *Scheduler) executeCall(ctx context.Context, it *batchItem) error {
	c := it.call
	if err := s.advance(ctx, c, toolcall.StatusExecuting); err != nil {
		return err
	}

	ectx, span := otelad.StartToolCallSpan(ctx, c.ID, c.Name)
	defer span.End()

	it.timer.Resume()
	started := time.Now()

	runCtx, cancelRun := context.WithCancel(toolcall.ContextWithID(ectx, c.ID))
	defer cancelRun()

	done := make(chan outcome, 1)
	go func() {
		res, err := it.inv.Execute(runCtx)
		done <- outcome{result: res, err: err}
	}()

	var status toolcall.Status
	var result *toolcall.Result

	select {
	case out := <-done:
		it.timer.Abort("finished")
		switch {
		case out.err == nil:
			status, result = toolcall.StatusSuccess, out.result
		case errors.Is(out.err, domain.ErrInfrastructure):
			return out.err
		default:
			// A tool's own failure is data for the model, never fatal.
			status, result = toolcall.StatusError, &toolcall.Result{Error: out.err.Error()}
		}

	case <-it.timer.Done():
		s.log.Warn("tool call exceeded its deadline", "call_id", c.ID, "tool", c.Name)
		s.reap(it)
		cancelRun()
		status = toolcall.StatusCancelled

	case <-s.abort:
		s.reap(it)
		cancelRun()
		it.timer.Abort("session aborted")
		status = toolcall.StatusCancelled

	case <-ectx.Done():
		s.reap(it)
		cancelRun()
		it.timer.Abort("request cancelled")
		status = toolcall.StatusCancelled
	}

	if s.metrics != nil {
		s.metrics.CallDuration.Record(ectx, time.Since(started).Seconds())
	}
	return s.finish(ctx, c, status, result)
}

// reap kills the call's process tree, if it spawned one. Reaping runs in
// the background so a stuck process cannot delay status reporting past
// the escalation grace window.
func (s *Scheduler) reap(it *batchItem) {
	rep, ok := it.inv.(tool.ProcessReporter)
	if !ok {
		return
	}
	proc := rep.Process()
	if proc == nil || proc.PID == 0 {
		return
	}
	s.mu.Lock()
	it.call.Process = proc
	s.mu.Unlock()

	go func() {
		err := reaper.Kill(proc.PID, reaper.Options{
			Escalate: true,
			IsExited: proc.IsExited,
			PTY:      proc.PTY,
		})
		if err != nil {
			s.log.Warn("process reap failed", "call_id", it.call.ID, "pid", proc.PID, "error", err)
		}
	}()
}
