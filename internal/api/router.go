// Package api exposes the coordinator's HTTP surface: a health check,
// the live-update websocket endpoint, and internal endpoints for manual
// recurrence processing, reminder cancellation, and test broadcasts.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the HTTP router over the given handlers.
func NewRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Health)
	r.Get("/ws/{user_id}", h.ws.ServeWS)

	r.Route("/internal", func(r chi.Router) {
		r.Post("/recurrence/process", h.ProcessRecurrence)
		r.Post("/reminders/cancel", h.CancelReminders)
		r.Post("/broadcast", h.Broadcast)
	})

	return r
}
