package toolcall

import (
	"errors"
	"testing"

	"github.com/Strob0t/Overseer/internal/domain"
)

func TestStatusMovesForwardOnly(t *testing.T) {
	c := New("c1", "Read", nil)

	if err := c.Advance(StatusAwaitingApproval); err != nil {
		t.Fatalf("validating → awaiting_approval: %v", err)
	}
	if err := c.Advance(StatusScheduled); err != nil {
		t.Fatalf("awaiting_approval → scheduled: %v", err)
	}
	if err := c.Advance(StatusExecuting); err != nil {
		t.Fatalf("scheduled → executing: %v", err)
	}
	if c.StartedAt.IsZero() {
		t.Fatal("StartedAt not stamped on executing")
	}

	// Backward edge is rejected.
	err := c.Advance(StatusScheduled)
	if !errors.Is(err, domain.ErrInfrastructure) {
		t.Fatalf("expected infrastructure fault for backward edge, got %v", err)
	}
	if c.Status != StatusExecuting {
		t.Fatalf("status mutated by rejected transition: %s", c.Status)
	}
}

func TestNoTransitionsOutOfTerminalStates(t *testing.T) {
	for _, terminal := range []Status{StatusSuccess, StatusError, StatusCancelled} {
		for _, next := range []Status{
			StatusValidating, StatusAwaitingApproval, StatusScheduled,
			StatusExecuting, StatusSuccess, StatusError, StatusCancelled,
		} {
			if CanTransition(terminal, next) {
				t.Errorf("terminal %s allows transition to %s", terminal, next)
			}
		}
	}
}

func TestDenyDuringValidationIsError(t *testing.T) {
	c := New("c1", "Bash", map[string]any{"command": "rm -rf /"})
	if err := c.Finish(StatusError, &Result{Error: "denied by policy"}); err == nil {
		// Validating → error is legal only via Advance inside Finish.
		if c.Result == nil || c.Result.Error == "" {
			t.Fatal("result not recorded for error state")
		}
	} else {
		t.Fatalf("finish: %v", err)
	}
}

func TestCancelledCarriesNoResult(t *testing.T) {
	c := New("c1", "Bash", nil)
	_ = c.Advance(StatusAwaitingApproval)
	if err := c.Finish(StatusCancelled, &Result{Content: "ignored"}); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if c.Result != nil {
		t.Fatal("cancelled call must not carry a result")
	}
	if c.EndedAt.IsZero() {
		t.Fatal("EndedAt not stamped on terminal state")
	}
}

func TestFinishRejectsNonTerminalStatus(t *testing.T) {
	c := New("c1", "Read", nil)
	if err := c.Finish(StatusExecuting, nil); !errors.Is(err, domain.ErrInfrastructure) {
		t.Fatalf("expected infrastructure fault, got %v", err)
	}
}

func TestSnapshotOmitsProcessHandle(t *testing.T) {
	c := New("c1", "Bash", nil)
	c.Process = &Process{PID: 42}
	snap := c.Snapshot()
	if snap.Process != nil {
		t.Fatal("snapshot leaked the process handle")
	}
	c.Result = &Result{Content: "x"}
	snap = c.Snapshot()
	snap.Result.Content = "mutated"
	if c.Result.Content != "x" {
		t.Fatal("snapshot shares result memory with the original")
	}
}
