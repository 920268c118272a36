package messages

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/wheelshare/wheelshare-api/internal/http/features/common"
	"github.com/wheelshare/wheelshare-api/internal/httputil"
	"github.com/wheelshare/wheelshare-api/pkg/carpool"
	"github.com/wheelshare/wheelshare-api/pkg/domain"
)

// Handler handles carpool chat endpoints.
type Handler struct {
	logger     *slog.Logger
	messages   *carpool.MessageService
	predicates *carpool.Predicates
}

// NewHandler creates a new messages handler.
func NewHandler(logger *slog.Logger, messages *carpool.MessageService, predicates *carpool.Predicates) *Handler {
	return &Handler{
		logger:     logger,
		messages:   messages,
		predicates: predicates,
	}
}

// SendRequest represents a new chat message.
type SendRequest struct {
	Content string `json:"content"`
}

// MessageResponse is the JSON form of a message.
type MessageResponse struct {
	ID        int64     `json:"id"`
	CarpoolID int64     `json:"carpool_id"`
	UserID    int64     `json:"user_id"`
	Content   string    `json:"content"`
	SentTime  time.Time `json:"sent_time"`
	Removed   bool      `json:"removed"`
}

func newMessageResponse(m *domain.Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		CarpoolID: m.CarpoolID,
		UserID:    m.UserID,
		Content:   m.Content,
		SentTime:  m.SentTime,
		Removed:   m.Removed,
	}
}

// List returns the carpool's messages to a member.
// GET /v1/carpools/{id}/messages
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	_, carpoolID, ok := common.Target(w, r, h.logger, h.predicates.IsCarpoolMember)
	if !ok {
		return
	}

	msgs, err := h.messages.List(r.Context(), carpoolID)
	if err != nil {
		httputil.ErrorFrom(w, h.logger, err)
		return
	}

	out := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, newMessageResponse(m))
	}
	httputil.JSON(w, http.StatusOK, out)
}

// Send posts a message to the carpool.
// POST /v1/carpools/{id}/messages
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	userID, carpoolID, ok := common.Target(w, r, h.logger, h.predicates.CanSendMessage)
	if !ok {
		return
	}

	var req SendRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorFrom(w, h.logger, err)
		return
	}

	m, err := h.messages.Send(r.Context(), userID, carpoolID, req.Content)
	if err != nil {
		httputil.ErrorFrom(w, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusCreated, newMessageResponse(m))
}

// Remove hides one of the user's own messages.
// DELETE /v1/messages/{id}
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(w, r)
	if !ok {
		return
	}
	messageID, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	if !common.Authorize(w, r, h.logger, h.predicates.CanRemoveMessage, messageID, userID) {
		return
	}

	if err := h.messages.Remove(r.Context(), messageID); err != nil {
		httputil.ErrorFrom(w, h.logger, err)
		return
	}
	httputil.NoContent(w)
}
