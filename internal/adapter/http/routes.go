package http

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)

		// Confirmation inbox
		r.Get("/confirmations", h.ListConfirmations)
		r.Post("/confirmations/{id}/resolve", h.ResolveConfirmation)

		// Active tool calls
		r.Get("/calls/{id}", h.GetCall)
		r.Post("/calls/{id}/extend", h.ExtendCallDeadline)

		// Tooling and policy
		r.Get("/tools", h.ListTools)
		r.Get("/rules", h.GetRuleSet)
		r.Put("/rules", h.PutRuleSet)
	})
}

// NewRouter builds a chi router with the standard middleware stack and
// all API routes mounted.
func NewRouter(h *Handlers, corsOrigin string) chi.Router {
	r := chi.NewRouter()
	r.Use(SecurityHeaders)
	r.Use(CORS(corsOrigin))
	r.Use(RequestID)
	r.Use(Logger)
	MountRoutes(r, h)
	return r
}
