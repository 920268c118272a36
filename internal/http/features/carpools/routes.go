package carpools

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers carpool routes. Read and write are the rate
// limiters for queries and state changes.
func (h *Handler) RegisterRoutes(r chi.Router, read, write func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(read)
		r.Get("/v1/carpools/{id}", h.Get)
		r.Get("/v1/carpools/{id}/potential_invitees", h.PotentialInvitees)
		r.Get("/v1/carpools/{id}/invitations_and_requests", h.InvitationsAndRequests)
	})

	r.Group(func(r chi.Router) {
		r.Use(write)
		r.Post("/v1/carpools", h.Create)
		r.Patch("/v1/carpools/{id}", h.Update)
		r.Delete("/v1/carpools/{id}", h.Delete)
		r.Post("/v1/carpools/{id}/leave", h.Leave)
		r.Post("/v1/carpools/{id}/request", h.Request)
		r.Delete("/v1/carpools/{id}/request", h.CancelRequest)
		r.Post("/v1/carpools/{id}/accept_request", h.AcceptRequest)
		r.Post("/v1/carpools/{id}/deny_request", h.DenyRequest)
		r.Post("/v1/carpools/{id}/invite", h.Invite)
		r.Delete("/v1/carpools/{id}/invite", h.CancelInvite)
		r.Post("/v1/carpools/{id}/accept_invite", h.AcceptInvite)
		r.Post("/v1/carpools/{id}/deny_invite", h.DenyInvite)
	})
}
