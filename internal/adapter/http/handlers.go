package http

import (
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/Strob0t/Overseer/internal/domain/policy"
	"github.com/Strob0t/Overseer/internal/port/bus"
	"github.com/Strob0t/Overseer/internal/port/tool"
	"github.com/Strob0t/Overseer/internal/scheduler"
)

// Handlers bundles the dependencies shared by all HTTP endpoints.
type Handlers struct {
	sched    *scheduler.Scheduler
	bus      bus.Bus
	registry *tool.Registry
	log      *slog.Logger
}

// NewHandlers creates the handler set. A nil logger falls back to the
// default slog logger.
func NewHandlers(s *scheduler.Scheduler, b bus.Bus, registry *tool.Registry, log *slog.Logger) *Handlers {
	if log == nil {
		log = slog.Default()
	}
	return &Handlers{sched: s, bus: b, registry: registry, log: log}
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListConfirmations returns the pending confirmation queue.
func (h *Handlers) ListConfirmations(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.sched.PendingConfirmations())
}

type resolveRequest struct {
	Approved  bool   `json:"approved"`
	Responder string `json:"responder,omitempty"`
}

// ResolveConfirmation publishes an answer for a pending confirmation.
// The scheduler ignores answers with no matching pending entry, so a
// late or duplicate resolve is accepted here and dropped there.
func (h *Handlers) ResolveConfirmation(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	req, ok := readJSON[resolveRequest](w, r)
	if !ok {
		return
	}

	err := h.bus.Publish(r.Context(), bus.Message{
		Kind:          bus.KindConfirmationResolved,
		CorrelationID: id,
		Payload: bus.ConfirmationResponse{
			CorrelationID: id,
			Approved:      req.Approved,
			Responder:     req.Responder,
		},
	})
	if err != nil {
		h.log.Error("publish confirmation resolve", "correlation_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// GetCall returns a snapshot of an active tool call. Terminal calls are
// dropped from the table once reported, so they come back 404.
func (h *Handlers) GetCall(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	c, ok := h.sched.Call(id)
	if !ok {
		writeError(w, http.StatusNotFound, "call not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type extendRequest struct {
	Seconds int `json:"seconds"`
}

// ExtendCallDeadline adds time to the execution budget of an active call.
func (h *Handlers) ExtendCallDeadline(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	req, ok := readJSON[extendRequest](w, r)
	if !ok {
		return
	}
	if req.Seconds <= 0 {
		writeError(w, http.StatusBadRequest, "seconds must be positive")
		return
	}

	if err := h.sched.ExtendDeadline(id, time.Duration(req.Seconds)*time.Second); err != nil {
		writeDomainError(w, err, "call not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "extended"})
}

// ListTools returns the registered tool names.
func (h *Handlers) ListTools(w http.ResponseWriter, _ *http.Request) {
	names := h.registry.Names()
	sort.Strings(names)
	writeJSON(w, http.StatusOK, map[string][]string{"tools": names})
}

// GetRuleSet returns the currently active policy rule set.
func (h *Handlers) GetRuleSet(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.sched.RuleSet())
}

// PutRuleSet validates and installs a replacement rule set. Takes effect
// for the next batch; in-flight calls keep their admission verdict.
func (h *Handlers) PutRuleSet(w http.ResponseWriter, r *http.Request) {
	rs, ok := readJSON[policy.RuleSet](w, r)
	if !ok {
		return
	}
	if err := rs.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.sched.SetRuleSet(rs)
	h.log.Info("rule set replaced", "name", rs.Name, "rules", len(rs.Rules))
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}
