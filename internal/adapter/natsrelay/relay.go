// Package natsrelay mirrors confirmation traffic between the in-process
// bus and NATS, so responders outside the agent process (ops tooling,
// chat bridges) can see pending requests and answer them. Core NATS is
// used rather than JetStream: confirmation traffic is ephemeral and an
// answer replayed after its call resolved would be ignored anyway.
package natsrelay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/Strob0t/Overseer/internal/port/bus"
)

const (
	// SubjectRequested carries confirmation requests out of the process.
	SubjectRequested = "overseer.confirmations.requested"

	// SubjectResolved carries answers back in.
	SubjectResolved = "overseer.confirmations.resolved"

	// SubjectStatus mirrors tool call lifecycle transitions, observe-only.
	SubjectStatus = "overseer.toolcalls.status"

	// SubjectDecision mirrors policy verdicts, observe-only.
	SubjectDecision = "overseer.policy.decisions"
)

// Relay bridges one local bus to one NATS connection.
type Relay struct {
	nc  *nats.Conn
	bus bus.Bus
	log *slog.Logger

	busCancels []func()
	natsSub    *nats.Subscription
}

// Connect dials NATS and returns a stopped relay; call Start to begin
// mirroring.
func Connect(url string, b bus.Bus, log *slog.Logger) (*Relay, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	log.Info("nats relay connected", "url", url)
	return &Relay{nc: nc, bus: b, log: log}, nil
}

// Start wires the mirrors in both directions.
func (r *Relay) Start() error {
	r.busCancels = append(r.busCancels,
		r.mirrorOut(bus.KindConfirmationRequested, SubjectRequested),
		r.mirrorOut(bus.KindToolCallStatus, SubjectStatus),
		r.mirrorOut(bus.KindPolicyDecision, SubjectDecision),
	)

	sub, err := r.nc.Subscribe(SubjectResolved, func(msg *nats.Msg) {
		var resp bus.ConfirmationResponse
		if err := json.Unmarshal(msg.Data, &resp); err != nil {
			r.log.Warn("dropping malformed confirmation answer", "error", err)
			return
		}
		err := r.bus.Publish(context.Background(), bus.Message{
			Kind:          bus.KindConfirmationResolved,
			CorrelationID: resp.CorrelationID,
			Payload:       resp,
		})
		if err != nil {
			r.log.Error("relay inbound publish failed", "error", err)
		}
	})
	if err != nil {
		r.stopBusMirrors()
		return fmt.Errorf("nats subscribe %s: %w", SubjectResolved, err)
	}
	r.natsSub = sub
	return nil
}

// mirrorOut forwards one bus kind onto a NATS subject.
func (r *Relay) mirrorOut(kind bus.Kind, subject string) func() {
	return r.bus.Subscribe(kind, func(_ context.Context, msg bus.Message) {
		data, err := json.Marshal(msg.Payload)
		if err != nil {
			r.log.Warn("relay outbound marshal failed", "kind", kind, "error", err)
			return
		}
		if err := r.nc.Publish(subject, data); err != nil {
			r.log.Error("relay outbound publish failed", "subject", subject, "error", err)
		}
	})
}

func (r *Relay) stopBusMirrors() {
	for _, cancel := range r.busCancels {
		cancel()
	}
	r.busCancels = nil
}

// Close stops the mirrors and closes the connection.
func (r *Relay) Close() error {
	r.stopBusMirrors()
	if r.natsSub != nil {
		_ = r.natsSub.Unsubscribe()
	}
	r.nc.Close()
	return nil
}
