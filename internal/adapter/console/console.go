// Package console implements an interactive terminal responder for
// confirmation requests. It subscribes to the bus, prompts y/N on the
// controlling terminal, and publishes the answer. Prompts are serialized
// so two pending calls never interleave on screen.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/Strob0t/Overseer/internal/port/bus"
)

// Interactive reports whether stdin is attached to a terminal. The
// responder is only useful when a human can actually answer.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Responder prompts for confirmation answers on a terminal.
type Responder struct {
	bus  bus.Bus
	in   *bufio.Reader
	out  io.Writer
	name string
	log  *slog.Logger

	queue       chan bus.ConfirmationRequest
	unsubscribe func()
}

// Option configures a Responder.
type Option func(*Responder)

// WithStreams overrides stdin/stdout, mainly for tests.
func WithStreams(in io.Reader, out io.Writer) Option {
	return func(r *Responder) {
		r.in = bufio.NewReader(in)
		r.out = out
	}
}

// WithResponderName sets the responder identity attached to answers.
func WithResponderName(name string) Option {
	return func(r *Responder) { r.name = name }
}

// New creates a Responder bound to the bus. Call Start to begin
// answering.
func New(b bus.Bus, log *slog.Logger, opts ...Option) *Responder {
	if log == nil {
		log = slog.Default()
	}
	r := &Responder{
		bus:   b,
		in:    bufio.NewReader(os.Stdin),
		out:   os.Stdout,
		name:  "console",
		log:   log,
		queue: make(chan bus.ConfirmationRequest, 16),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start subscribes to confirmation requests and runs the prompt loop
// until ctx is cancelled. Requests arriving while the queue is full are
// dropped; the scheduler treats the resulting silence as denial.
func (r *Responder) Start(ctx context.Context) {
	r.unsubscribe = r.bus.Subscribe(bus.KindConfirmationRequested, func(_ context.Context, msg bus.Message) {
		req, ok := msg.Payload.(bus.ConfirmationRequest)
		if !ok {
			return
		}
		select {
		case r.queue <- req:
		default:
			r.log.Warn("confirmation prompt queue full, dropping",
				"correlation_id", req.CorrelationID)
		}
	})

	go r.loop(ctx)
}

// Stop cancels the bus subscription.
func (r *Responder) Stop() {
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
}

func (r *Responder) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-r.queue:
			approved := r.prompt(req)
			err := r.bus.Publish(ctx, bus.Message{
				Kind:          bus.KindConfirmationResolved,
				CorrelationID: req.CorrelationID,
				Payload: bus.ConfirmationResponse{
					CorrelationID: req.CorrelationID,
					Approved:      approved,
					Responder:     r.name,
				},
			})
			if err != nil {
				r.log.Error("publish confirmation answer",
					"correlation_id", req.CorrelationID, "error", err)
			}
		}
	}
}

// prompt writes the request and reads one line. Anything but an explicit
// yes is a no.
func (r *Responder) prompt(req bus.ConfirmationRequest) bool {
	fmt.Fprintf(r.out, "\ntool %s wants to run:\n  %s\n", req.ToolName, req.ProposedAction)
	if req.ArgsDigest != "" {
		fmt.Fprintf(r.out, "  args: %s\n", req.ArgsDigest)
	}
	fmt.Fprint(r.out, "approve? [y/N] ")

	line, err := r.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
