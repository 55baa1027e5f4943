package delegate

import (
	"context"
	"sync"

	"github.com/Strob0t/Overseer/internal/port/bus"
)

// confirmBridge implements bus.Bus for an inner sub-agent scheduler. All
// traffic forwards to the outer bus, but confirmation requests go out
// under the outer call's correlation ID so responders see questions
// belonging to the delegation, and answers route back to the inner
// calls that asked. The inner scheduler parks a whole batch before
// awaiting any answer, so several questions can be outstanding at once;
// the bridge queues their inner IDs and pops them in ask order, one per
// answer.
type confirmBridge struct {
	outer   bus.Bus
	outerID string

	mu      sync.Mutex
	pending []string
}

func newConfirmBridge(outer bus.Bus, outerID string) *confirmBridge {
	return &confirmBridge{outer: outer, outerID: outerID}
}

func (b *confirmBridge) Publish(ctx context.Context, msg bus.Message) error {
	if b.outerID != "" && msg.Kind == bus.KindConfirmationRequested {
		if req, ok := msg.Payload.(bus.ConfirmationRequest); ok {
			b.mu.Lock()
			b.pending = append(b.pending, req.CorrelationID)
			b.mu.Unlock()
			req.CorrelationID = b.outerID
			msg.CorrelationID = b.outerID
			msg.Payload = req
		}
	}
	return b.outer.Publish(ctx, msg)
}

func (b *confirmBridge) Subscribe(kind bus.Kind, handler bus.Handler) (cancel func()) {
	if b.outerID == "" || kind != bus.KindConfirmationResolved {
		return b.outer.Subscribe(kind, handler)
	}
	return b.outer.Subscribe(kind, func(ctx context.Context, msg bus.Message) {
		if resp, ok := msg.Payload.(bus.ConfirmationResponse); ok && resp.CorrelationID == b.outerID {
			b.mu.Lock()
			var inner string
			if len(b.pending) > 0 {
				inner = b.pending[0]
				b.pending = b.pending[1:]
			}
			b.mu.Unlock()
			if inner != "" {
				resp.CorrelationID = inner
				msg.CorrelationID = inner
				msg.Payload = resp
			}
		}
		handler(ctx, msg)
	})
}
