// Package bus defines the message bus port decoupling the scheduler from
// whoever answers confirmation prompts. Every component observes or
// influences scheduler state through this channel only; nothing reaches
// into scheduler-owned state directly.
package bus

import (
	"context"
	"time"
)

// Kind identifies the type of a bus message.
type Kind string

const (
	// KindConfirmationRequested asks subscribers to approve or deny a
	// pending tool call.
	KindConfirmationRequested Kind = "confirmation.requested"

	// KindConfirmationResolved carries an answer for a pending call.
	// Exactly one resolver should answer; duplicates are ignored by the
	// scheduler (first one wins).
	KindConfirmationResolved Kind = "confirmation.resolved"

	// KindPolicyDecision announces the policy verdict for a call.
	KindPolicyDecision Kind = "policy.decision"

	// KindToolCallStatus announces a call's lifecycle transition.
	KindToolCallStatus Kind = "toolcall.status"
)

// Message is the envelope carried on the bus. CorrelationID ties
// confirmation traffic to the originating tool call without shared
// mutable state.
type Message struct {
	Kind          Kind
	CorrelationID string
	Payload       any
}

// Handler processes a message delivered by the bus.
type Handler func(ctx context.Context, msg Message)

// Bus is the port interface for in-process publish/subscribe.
type Bus interface {
	// Publish fans the message out to all subscribers of its kind.
	// Zero subscribers is not an error. A returned error means the bus
	// itself failed and is treated as a session-level fault.
	Publish(ctx context.Context, msg Message) error

	// Subscribe registers a handler for messages of the given kind.
	// The returned function cancels the subscription.
	Subscribe(kind Kind, handler Handler) (cancel func())
}

// ConfirmationRequest is the payload of KindConfirmationRequested.
type ConfirmationRequest struct {
	CorrelationID  string     `json:"correlation_id"`
	ToolName       string     `json:"tool_name"`
	ArgsDigest     string     `json:"args_digest"`
	ProposedAction string     `json:"proposed_action"`
	Expiry         *time.Time `json:"expiry,omitempty"`
}

// ConfirmationResponse is the payload of KindConfirmationResolved.
// Approved=false or Cancelled=true both resolve the call to denial.
type ConfirmationResponse struct {
	CorrelationID string `json:"correlation_id"`
	Approved      bool   `json:"approved"`
	Cancelled     bool   `json:"cancelled,omitempty"`
	Responder     string `json:"responder,omitempty"`
}

// PolicyDecision is the payload of KindPolicyDecision.
type PolicyDecision struct {
	CorrelationID string `json:"correlation_id"`
	ToolName      string `json:"tool_name"`
	Decision      string `json:"decision"`
	RuleSet       string `json:"rule_set,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// ToolCallStatus is the payload of KindToolCallStatus.
type ToolCallStatus struct {
	CallID string `json:"call_id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}
