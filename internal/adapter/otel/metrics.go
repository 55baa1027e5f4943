package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "overseer"

// Metrics holds all scheduler metric instruments.
type Metrics struct {
	CallsScheduled         metric.Int64Counter
	CallsSucceeded         metric.Int64Counter
	CallsFailed            metric.Int64Counter
	CallsCancelled         metric.Int64Counter
	PolicyAllowed          metric.Int64Counter
	PolicyDenied           metric.Int64Counter
	PolicyAsked            metric.Int64Counter
	ConfirmationsRequested metric.Int64Counter
	CallDuration           metric.Float64Histogram
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.CallsScheduled, err = meter.Int64Counter("overseer.toolcalls.scheduled",
		metric.WithDescription("Number of tool calls accepted for scheduling"))
	if err != nil {
		return nil, err
	}

	m.CallsSucceeded, err = meter.Int64Counter("overseer.toolcalls.succeeded",
		metric.WithDescription("Number of tool calls that finished successfully"))
	if err != nil {
		return nil, err
	}

	m.CallsFailed, err = meter.Int64Counter("overseer.toolcalls.failed",
		metric.WithDescription("Number of tool calls that finished in error"))
	if err != nil {
		return nil, err
	}

	m.CallsCancelled, err = meter.Int64Counter("overseer.toolcalls.cancelled",
		metric.WithDescription("Number of tool calls cancelled by deadline, denial or abort"))
	if err != nil {
		return nil, err
	}

	m.PolicyAllowed, err = meter.Int64Counter("overseer.policy.allowed",
		metric.WithDescription("Policy evaluations that returned allow"))
	if err != nil {
		return nil, err
	}

	m.PolicyDenied, err = meter.Int64Counter("overseer.policy.denied",
		metric.WithDescription("Policy evaluations that returned deny"))
	if err != nil {
		return nil, err
	}

	m.PolicyAsked, err = meter.Int64Counter("overseer.policy.asked",
		metric.WithDescription("Policy evaluations that escalated to a confirmation"))
	if err != nil {
		return nil, err
	}

	m.ConfirmationsRequested, err = meter.Int64Counter("overseer.confirmations.requested",
		metric.WithDescription("Confirmation requests published on the bus"))
	if err != nil {
		return nil, err
	}

	m.CallDuration, err = meter.Float64Histogram("overseer.toolcall.duration_seconds",
		metric.WithDescription("Tool call execution duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
