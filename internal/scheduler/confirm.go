package scheduler

import (
	"context"
	"time"

	"github.com/Strob0t/Overseer/internal/port/bus"
)

// pendingConfirmation tracks one outstanding confirmation request. A call
// has at most one outstanding request at a time; the buffered channel
// makes the first answer win and later duplicates land in the default
// branch of the send.
type pendingConfirmation struct {
	request  bus.ConfirmationRequest
	resolved chan bus.ConfirmationResponse
}

// PendingView is a read-only snapshot of the confirmation queue for
// single-focus UIs: the full pending list, the head index chosen FIFO by
// the order calls entered awaiting_approval, and the count. Exposing the
// whole view lets a UI follow the queue without polling scheduler state.
type PendingView struct {
	Items []bus.ConfirmationRequest `json:"items"`
	Head  int                       `json:"head"` // -1 when empty
	Count int                       `json:"count"`
}

// PendingConfirmations returns the current confirmation queue.
func (s *Scheduler) PendingConfirmations() PendingView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := PendingView{Head: -1, Count: len(s.pending)}
	if len(s.pending) > 0 {
		view.Head = 0
	}
	view.Items = make([]bus.ConfirmationRequest, len(s.pending))
	for i, p := range s.pending {
		view.Items[i] = p.request
	}
	return view
}

// enqueueConfirmation registers a pending entry and publishes the
// confirmation request on the bus.
func (s *Scheduler) enqueueConfirmation(ctx context.Context, req bus.ConfirmationRequest) (*pendingConfirmation, error) {
	p := &pendingConfirmation{
		request:  req,
		resolved: make(chan bus.ConfirmationResponse, 1),
	}

	s.mu.Lock()
	s.pending = append(s.pending, p)
	s.mu.Unlock()

	err := s.bus.Publish(ctx, bus.Message{
		Kind:          bus.KindConfirmationRequested,
		CorrelationID: req.CorrelationID,
		Payload:       req,
	})
	if err != nil {
		s.dequeueConfirmation(p)
		return nil, err
	}
	return p, nil
}

// dequeueConfirmation removes a resolved entry from the FIFO queue.
func (s *Scheduler) dequeueConfirmation(p *pendingConfirmation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, q := range s.pending {
		if q == p {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
}

// onConfirmationResolved matches a bus answer to its pending entry.
// Duplicate answers for the same correlation ID are ignored without
// crashing: the first response fills the buffer, later sends hit the
// default branch.
func (s *Scheduler) onConfirmationResolved(_ context.Context, msg bus.Message) {
	resp, ok := msg.Payload.(bus.ConfirmationResponse)
	if !ok {
		return
	}

	s.mu.Lock()
	var target *pendingConfirmation
	for _, p := range s.pending {
		if p.request.CorrelationID == resp.CorrelationID {
			target = p
			break
		}
	}
	s.mu.Unlock()

	if target == nil {
		return
	}
	select {
	case target.resolved <- resp:
	default:
	}
}

// awaitConfirmation blocks until the entry resolves, expires, or the
// session aborts. No answer within the window resolves to denial: with
// zero subscribers on the bus, nobody can answer, and the safe outcome
// is to treat silence as "no".
func (s *Scheduler) awaitConfirmation(ctx context.Context, p *pendingConfirmation) (approved bool, reason string) {
	defer s.dequeueConfirmation(p)

	var expiry <-chan time.Time
	if p.request.Expiry != nil {
		t := time.NewTimer(time.Until(*p.request.Expiry))
		defer t.Stop()
		expiry = t.C
	}

	select {
	case resp := <-p.resolved:
		if resp.Cancelled || !resp.Approved {
			return false, "denied"
		}
		return true, ""
	case <-expiry:
		return false, "confirmation expired"
	case <-s.abort:
		return false, "session aborted"
	case <-ctx.Done():
		return false, "request cancelled"
	}
}
