package membus

import (
	"context"
	"errors"
	"testing"

	"github.com/Strob0t/Overseer/internal/domain"
	"github.com/Strob0t/Overseer/internal/port/bus"
)

func TestFanOutToAllSubscribers(t *testing.T) {
	b := New()
	got := make([]string, 0, 2)

	b.Subscribe(bus.KindPolicyDecision, func(_ context.Context, msg bus.Message) {
		got = append(got, "first:"+msg.CorrelationID)
	})
	b.Subscribe(bus.KindPolicyDecision, func(_ context.Context, msg bus.Message) {
		got = append(got, "second:"+msg.CorrelationID)
	})

	err := b.Publish(context.Background(), bus.Message{
		Kind:          bus.KindPolicyDecision,
		CorrelationID: "c1",
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("deliveries = %d, want 2", len(got))
	}
}

func TestZeroSubscribersIsNotAnError(t *testing.T) {
	b := New()
	if err := b.Publish(context.Background(), bus.Message{Kind: bus.KindConfirmationRequested}); err != nil {
		t.Fatalf("publish with no subscribers: %v", err)
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	b := New()
	count := 0
	cancel := b.Subscribe(bus.KindToolCallStatus, func(context.Context, bus.Message) { count++ })

	_ = b.Publish(context.Background(), bus.Message{Kind: bus.KindToolCallStatus})
	cancel()
	cancel() // idempotent
	_ = b.Publish(context.Background(), bus.Message{Kind: bus.KindToolCallStatus})

	if count != 1 {
		t.Fatalf("deliveries = %d, want 1", count)
	}
}

func TestKindsAreIsolated(t *testing.T) {
	b := New()
	count := 0
	b.Subscribe(bus.KindConfirmationResolved, func(context.Context, bus.Message) { count++ })

	_ = b.Publish(context.Background(), bus.Message{Kind: bus.KindConfirmationRequested})
	if count != 0 {
		t.Fatal("handler received a message of another kind")
	}
}

func TestPanickingHandlerIsAnInfrastructureFault(t *testing.T) {
	b := New()
	survived := false
	b.Subscribe(bus.KindPolicyDecision, func(context.Context, bus.Message) { panic("boom") })
	b.Subscribe(bus.KindPolicyDecision, func(context.Context, bus.Message) { survived = true })

	err := b.Publish(context.Background(), bus.Message{Kind: bus.KindPolicyDecision})
	if !errors.Is(err, domain.ErrInfrastructure) {
		t.Fatalf("expected infrastructure fault, got %v", err)
	}
	if !survived {
		t.Fatal("panic in one handler starved the others")
	}
}
