package carpools

import (
	"log/slog"
	"net/http"

	"github.com/wheelshare/wheelshare-api/internal/http/features/common"
	"github.com/wheelshare/wheelshare-api/internal/httputil"
	"github.com/wheelshare/wheelshare-api/pkg/carpool"
	"github.com/wheelshare/wheelshare-api/pkg/domain"
)

// Handler handles carpool, invitation and join request endpoints.
type Handler struct {
	logger      *slog.Logger
	carpools    *carpool.CarpoolService
	invitations *carpool.InvitationService
	predicates  *carpool.Predicates
}

// NewHandler creates a new carpools handler.
func NewHandler(
	logger *slog.Logger,
	carpools *carpool.CarpoolService,
	invitations *carpool.InvitationService,
	predicates *carpool.Predicates,
) *Handler {
	return &Handler{
		logger:      logger,
		carpools:    carpools,
		invitations: invitations,
		predicates:  predicates,
	}
}

// CreateRequest represents a carpool creation request.
type CreateRequest struct {
	Name           string  `json:"name"`
	EventID        int64   `json:"event_id"`
	InvitedUserIDs []int64 `json:"invited_user_ids"`
	Note           *string `json:"note,omitempty"`
}

// UpdateRequest represents a carpool update request.
type UpdateRequest struct {
	Note *string `json:"note"`
}

// UserRequest names the user an invite or request operation applies to.
type UserRequest struct {
	UserID int64 `json:"user_id"`
}

// DetailsResponse is a carpool with its event, members and pending invitations.
type DetailsResponse struct {
	common.CarpoolResponse
	Event       common.EventResponse        `json:"event"`
	Members     []domain.UserPreview        `json:"members"`
	Invitations []common.InvitationResponse `json:"invitations"`
}

// LeaveResponse reports whether leaving deleted the carpool.
type LeaveResponse struct {
	Deleted bool `json:"deleted"`
}

// OutcomeResponse reports what an invite or request did.
type OutcomeResponse struct {
	Outcome string `json:"outcome"`
}

// Create creates a carpool for an event the user can see.
// POST /v1/carpools
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(w, r)
	if !ok {
		return
	}

	var req CreateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorFrom(w, h.logger, err)
		return
	}
	if req.EventID <= 0 {
		httputil.Error(w, http.StatusBadRequest, "event_id is required")
		return
	}

	if !common.Authorize(w, r, h.logger, h.predicates.CanAddCarpoolToEvent, req.EventID, userID) {
		return
	}

	c, err := h.carpools.Create(r.Context(), carpool.CreateParams{
		Name:           req.Name,
		UserID:         userID,
		EventID:        req.EventID,
		InvitedUserIDs: req.InvitedUserIDs,
		Note:           req.Note,
	})
	if err != nil {
		httputil.ErrorFrom(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusCreated, common.NewCarpoolResponse(c))
}

// Get returns a carpool with its event, members and invitations.
// GET /v1/carpools/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	_, carpoolID, ok := common.Target(w, r, h.logger, h.predicates.CanViewCarpool)
	if !ok {
		return
	}

	d, err := h.carpools.Get(r.Context(), carpoolID)
	if err != nil {
		httputil.ErrorFrom(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, DetailsResponse{
		CarpoolResponse: common.NewCarpoolResponse(d.Carpool),
		Event:           common.NewEventResponse(d.Event),
		Members:         common.UserPreviews(d.Members),
		Invitations:     common.NewInvitationResponses(d.Invitations),
	})
}

// Update sets or clears the carpool note.
// PATCH /v1/carpools/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	_, carpoolID, ok := common.Target(w, r, h.logger, h.predicates.IsCarpoolCreator)
	if !ok {
		return
	}

	var req UpdateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorFrom(w, h.logger, err)
		return
	}

	if err := h.carpools.UpdateNote(r.Context(), carpoolID, req.Note); err != nil {
		httputil.ErrorFrom(w, h.logger, err)
		return
	}
	httputil.NoContent(w)
}

// Delete deletes the carpool with its members, invitations and messages.
// DELETE /v1/carpools/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	_, carpoolID, ok := common.Target(w, r, h.logger, h.predicates.CanDeleteCarpool)
	if !ok {
		return
	}

	if err := h.carpools.Delete(r.Context(), carpoolID); err != nil {
		httputil.ErrorFrom(w, h.logger, err)
		return
	}
	httputil.NoContent(w)
}

// Leave removes the current user from the carpool.
// POST /v1/carpools/{id}/leave
func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	userID, carpoolID, ok := common.Target(w, r, h.logger, nil)
	if !ok {
		return
	}

	deleted, err := h.carpools.Leave(r.Context(), carpoolID, userID)
	if err != nil {
		httputil.ErrorFrom(w, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, LeaveResponse{Deleted: deleted})
}

// PotentialInvitees lists event attendees who are in no carpool for the event.
// GET /v1/carpools/{id}/potential_invitees
func (h *Handler) PotentialInvitees(w http.ResponseWriter, r *http.Request) {
	_, carpoolID, ok := common.Target(w, r, h.logger, h.predicates.CanManageCarpoolInvites)
	if !ok {
		return
	}

	users, err := h.carpools.PotentialInvitees(r.Context(), carpoolID)
	if err != nil {
		httputil.ErrorFrom(w, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, common.UserPreviews(users))
}

// InvitationsAndRequests lists the carpool's pending invites and requests.
// GET /v1/carpools/{id}/invitations_and_requests
func (h *Handler) InvitationsAndRequests(w http.ResponseWriter, r *http.Request) {
	_, carpoolID, ok := common.Target(w, r, h.logger, h.predicates.CanViewCarpoolInvitesAndRequests)
	if !ok {
		return
	}

	invs, err := h.invitations.ForCarpool(r.Context(), carpoolID)
	if err != nil {
		httputil.ErrorFrom(w, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, common.NewInvitationResponses(invs))
}

// Request asks to join the carpool. A pending invite for the user is
// accepted instead.
// POST /v1/carpools/{id}/request
func (h *Handler) Request(w http.ResponseWriter, r *http.Request) {
	userID, carpoolID, ok := common.Target(w, r, h.logger, h.predicates.CanViewCarpool)
	if !ok {
		return
	}
	h.create(w, r, userID, carpoolID, true)
}

// CancelRequest withdraws the current user's join request.
// DELETE /v1/carpools/{id}/request
func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	userID, carpoolID, ok := common.Target(w, r, h.logger, nil)
	if !ok {
		return
	}
	h.decline(w, r, userID, carpoolID, true)
}

// AcceptRequest adds the requesting user to the carpool.
// POST /v1/carpools/{id}/accept_request
func (h *Handler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	_, carpoolID, ok := common.Target(w, r, h.logger, h.predicates.CanManageCarpoolRequests)
	if !ok {
		return
	}
	target, ok := h.targetUser(w, r)
	if !ok {
		return
	}
	h.accept(w, r, target, carpoolID, true)
}

// DenyRequest rejects a join request.
// POST /v1/carpools/{id}/deny_request
func (h *Handler) DenyRequest(w http.ResponseWriter, r *http.Request) {
	_, carpoolID, ok := common.Target(w, r, h.logger, h.predicates.CanManageCarpoolRequests)
	if !ok {
		return
	}
	target, ok := h.targetUser(w, r)
	if !ok {
		return
	}
	h.decline(w, r, target, carpoolID, true)
}

// Invite invites a user to the carpool. A pending request from the user is
// accepted instead.
// POST /v1/carpools/{id}/invite
func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
	_, carpoolID, ok := common.Target(w, r, h.logger, h.predicates.CanManageCarpoolInvites)
	if !ok {
		return
	}
	target, ok := h.targetUser(w, r)
	if !ok {
		return
	}
	h.create(w, r, target, carpoolID, false)
}

// CancelInvite revokes an invite.
// DELETE /v1/carpools/{id}/invite
func (h *Handler) CancelInvite(w http.ResponseWriter, r *http.Request) {
	_, carpoolID, ok := common.Target(w, r, h.logger, h.predicates.CanManageCarpoolInvites)
	if !ok {
		return
	}
	target, ok := h.targetUser(w, r)
	if !ok {
		return
	}
	h.decline(w, r, target, carpoolID, false)
}

// AcceptInvite accepts the current user's invite.
// POST /v1/carpools/{id}/accept_invite
func (h *Handler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	userID, carpoolID, ok := common.Target(w, r, h.logger, nil)
	if !ok {
		return
	}
	h.accept(w, r, userID, carpoolID, false)
}

// DenyInvite declines the current user's invite.
// POST /v1/carpools/{id}/deny_invite
func (h *Handler) DenyInvite(w http.ResponseWriter, r *http.Request) {
	userID, carpoolID, ok := common.Target(w, r, h.logger, nil)
	if !ok {
		return
	}
	h.decline(w, r, userID, carpoolID, false)
}

func (h *Handler) targetUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	var req UserRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorFrom(w, h.logger, err)
		return 0, false
	}
	if req.UserID <= 0 {
		httputil.Error(w, http.StatusBadRequest, "user_id is required")
		return 0, false
	}
	return req.UserID, true
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, userID, carpoolID int64, isRequest bool) {
	outcome, err := h.invitations.Create(r.Context(), userID, carpoolID, isRequest)
	if err != nil {
		httputil.ErrorFrom(w, h.logger, err)
		return
	}

	status := http.StatusOK
	if outcome == carpool.OutcomeCreated {
		status = http.StatusCreated
	}
	httputil.JSON(w, status, OutcomeResponse{Outcome: outcome.String()})
}

func (h *Handler) accept(w http.ResponseWriter, r *http.Request, userID, carpoolID int64, isRequest bool) {
	if err := h.invitations.Accept(r.Context(), userID, carpoolID, isRequest); err != nil {
		httputil.ErrorFrom(w, h.logger, err)
		return
	}
	httputil.NoContent(w)
}

func (h *Handler) decline(w http.ResponseWriter, r *http.Request, userID, carpoolID int64, isRequest bool) {
	if err := h.invitations.Decline(r.Context(), userID, carpoolID, isRequest); err != nil {
		httputil.ErrorFrom(w, h.logger, err)
		return
	}
	httputil.NoContent(w)
}
