package toolcall

import (
	"fmt"
	"time"

	"github.com/Strob0t/Overseer/internal/domain"
)

// transitions is the status graph. Status only moves forward through this
// graph, never backward, and never out of a terminal state.
var transitions = map[Status][]Status{
	StatusValidating:       {StatusAwaitingApproval, StatusScheduled, StatusError},
	StatusAwaitingApproval: {StatusScheduled, StatusCancelled},
	StatusScheduled:        {StatusExecuting, StatusCancelled},
	StatusExecuting:        {StatusSuccess, StatusError, StatusCancelled},
	StatusSuccess:          nil,
	StatusError:            nil,
	StatusCancelled:        nil,
}

// CanTransition reports whether from → to is a legal edge.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Advance moves the call to next, stamping StartedAt on entry to
// executing and EndedAt on entry to any terminal state. An illegal edge
// is an infrastructure fault: it means scheduler code, not tool or user
// input, is wrong.
func (c *ToolCall) Advance(next Status) error {
	if !CanTransition(c.Status, next) {
		return fmt.Errorf("illegal transition %s → %s for call %s: %w",
			c.Status, next, c.ID, domain.ErrInfrastructure)
	}
	c.Status = next
	switch {
	case next == StatusExecuting:
		c.StartedAt = time.Now()
	case next.Terminal():
		c.EndedAt = time.Now()
	}
	return nil
}

// Finish advances to a terminal status and records the result. Result is
// set only for success and error; a cancelled call carries none.
func (c *ToolCall) Finish(next Status, result *Result) error {
	if !next.Terminal() {
		return fmt.Errorf("finish with non-terminal status %s: %w", next, domain.ErrInfrastructure)
	}
	if err := c.Advance(next); err != nil {
		return err
	}
	if next == StatusCancelled {
		c.Result = nil
		return nil
	}
	c.Result = result
	return nil
}
