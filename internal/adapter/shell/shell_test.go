//go:build unix

package shell

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Strob0t/Overseer/internal/domain"
)

func TestBuildRequiresCommand(t *testing.T) {
	tl := New(Config{})
	_, err := tl.Build(map[string]any{})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err = tl.Build(map[string]any{"command": 42})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for non-string command, got %v", err)
	}
}

func TestExecuteCapturesOutput(t *testing.T) {
	tl := New(Config{})
	inv, err := tl.Build(map[string]any{"command": "echo hello; echo err >&2"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	res, err := inv.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(res.Content, "hello") || !strings.Contains(res.Content, "err") {
		t.Errorf("output missing streams: %q", res.Content)
	}
}

func TestExecuteNonZeroExit(t *testing.T) {
	tl := New(Config{})
	inv, err := tl.Build(map[string]any{"command": "echo boom; exit 3"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	_, err = inv.Execute(context.Background())
	if err == nil {
		t.Fatal("expected error for exit 3")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("error %q does not carry the output tail", err)
	}
}

func TestProcessHandleExposed(t *testing.T) {
	tl := New(Config{})
	inv, err := tl.Build(map[string]any{"command": "true"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	sh := inv.(*Invocation)
	if sh.Process() != nil {
		t.Fatal("process handle set before start")
	}
	if _, err := inv.Execute(context.Background()); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	proc := sh.Process()
	if proc == nil || proc.PID == 0 {
		t.Fatal("process handle missing after run")
	}
	if !proc.IsExited() {
		t.Error("IsExited false after Wait returned")
	}
}

func TestOutputCapped(t *testing.T) {
	tl := New(Config{MaxOutputBytes: 16})
	inv, err := tl.Build(map[string]any{"command": "yes x | head -c 1000"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	res, err := inv.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(res.Content) > 16 {
		t.Errorf("output not capped: %d bytes", len(res.Content))
	}
}

func TestAlwaysConfirm(t *testing.T) {
	tl := New(Config{AlwaysConfirm: true})
	inv, err := tl.Build(map[string]any{"command": "true"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	conf, err := inv.ShouldConfirmExecute(context.Background())
	if err != nil {
		t.Fatalf("ShouldConfirmExecute: %v", err)
	}
	if conf == nil || !strings.Contains(conf.ProposedAction, "true") {
		t.Errorf("confirmation missing or empty: %+v", conf)
	}
}
