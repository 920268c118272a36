package messages

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers chat routes.
func (h *Handler) RegisterRoutes(r chi.Router, read, write func(http.Handler) http.Handler) {
	r.With(read).Get("/v1/carpools/{id}/messages", h.List)
	r.With(write).Post("/v1/carpools/{id}/messages", h.Send)
	r.With(write).Delete("/v1/messages/{id}", h.Remove)
}
