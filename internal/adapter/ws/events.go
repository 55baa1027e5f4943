package ws

import (
	"context"
	"encoding/json"

	"github.com/Strob0t/Overseer/internal/port/bus"
)

// Event type constants for WebSocket messages. They mirror the bus kinds
// so a client can treat the socket as a read-only window onto the bus.
const (
	EventConfirmationRequested = string(bus.KindConfirmationRequested)
	EventToolCallStatus        = string(bus.KindToolCallStatus)
	EventPolicyDecision        = string(bus.KindPolicyDecision)
)

// Attach subscribes the hub to the observable bus kinds and re-broadcasts
// each message to all connected clients. The returned function cancels
// the subscriptions.
func (h *Hub) Attach(b bus.Bus) (detach func()) {
	cancels := []func(){
		b.Subscribe(bus.KindConfirmationRequested, h.relay),
		b.Subscribe(bus.KindToolCallStatus, h.relay),
		b.Subscribe(bus.KindPolicyDecision, h.relay),
	}
	return func() {
		for _, c := range cancels {
			c()
		}
	}
}

// relay forwards one bus message to every client.
func (h *Hub) relay(ctx context.Context, msg bus.Message) {
	h.BroadcastEvent(ctx, string(msg.Kind), msg.Payload)
}

// BroadcastEvent marshals a typed event and broadcasts it.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}
