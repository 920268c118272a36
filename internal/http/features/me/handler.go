package me

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wheelshare/wheelshare-api/internal/http/features/common"
	"github.com/wheelshare/wheelshare-api/internal/httputil"
	"github.com/wheelshare/wheelshare-api/pkg/carpool"
	"github.com/wheelshare/wheelshare-api/pkg/domain"
)

// Handler handles the current user's carpool and invitation listings.
type Handler struct {
	logger      *slog.Logger
	carpools    *carpool.CarpoolService
	invitations *carpool.InvitationService
}

// NewHandler creates a new me handler.
func NewHandler(logger *slog.Logger, carpools *carpool.CarpoolService, invitations *carpool.InvitationService) *Handler {
	return &Handler{
		logger:      logger,
		carpools:    carpools,
		invitations: invitations,
	}
}

// RegisterRoutes registers the /v1/me routes.
func (h *Handler) RegisterRoutes(r chi.Router, read func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(read)
		r.Get("/v1/me/carpools", h.ActiveCarpools)
		r.Get("/v1/me/invitations/received", h.listing(h.invitations.ReceivedInvitations))
		r.Get("/v1/me/invitations/sent", h.listing(h.invitations.SentInvitations))
		r.Get("/v1/me/requests/received", h.listing(h.invitations.ReceivedRequests))
		r.Get("/v1/me/requests/sent", h.listing(h.invitations.SentRequests))
	})
}

// ActiveCarpools returns the user's carpools whose event has not ended.
// GET /v1/me/carpools
func (h *Handler) ActiveCarpools(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(w, r)
	if !ok {
		return
	}

	cs, err := h.carpools.ActiveForUser(r.Context(), userID)
	if err != nil {
		httputil.ErrorFrom(w, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, common.NewCarpoolResponses(cs))
}

type listFunc func(ctx context.Context, userID int64) ([]*domain.InvitationView, error)

// listing adapts one of the invitation listings to a handler.
// GET /v1/me/invitations/{received,sent} and /v1/me/requests/{received,sent}
func (h *Handler) listing(list listFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := common.UserID(w, r)
		if !ok {
			return
		}

		views, err := list(r.Context(), userID)
		if err != nil {
			httputil.ErrorFrom(w, h.logger, err)
			return
		}
		httputil.JSON(w, http.StatusOK, common.NewInvitationViewResponses(views))
	}
}
