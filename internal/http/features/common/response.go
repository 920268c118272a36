package common

import (
	"time"

	"github.com/wheelshare/wheelshare-api/pkg/domain"
)

// CarpoolResponse is the JSON form of a carpool.
type CarpoolResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	EventID   int64     `json:"event_id"`
	CreatorID int64     `json:"creator_id"`
	Note      *string   `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewCarpoolResponse converts a carpool.
func NewCarpoolResponse(c *domain.Carpool) CarpoolResponse {
	return CarpoolResponse{
		ID:        c.ID,
		Name:      c.Name,
		EventID:   c.EventID,
		CreatorID: c.CreatorID,
		Note:      c.Note,
		CreatedAt: c.CreatedAt,
	}
}

// NewCarpoolResponses converts a list of carpools. The result is never nil.
func NewCarpoolResponses(cs []*domain.Carpool) []CarpoolResponse {
	out := make([]CarpoolResponse, 0, len(cs))
	for _, c := range cs {
		out = append(out, NewCarpoolResponse(c))
	}
	return out
}

// EventResponse is the JSON form of an event.
type EventResponse struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	GroupID         *int64     `json:"group_id,omitempty"`
	StartTime       time.Time  `json:"start_time"`
	DurationMinutes int        `json:"duration_minutes"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DaysOfWeek      int        `json:"days_of_week"`
	Cancelled       bool       `json:"cancelled"`
}

// NewEventResponse converts an event.
func NewEventResponse(e *domain.Event) EventResponse {
	return EventResponse{
		ID:              e.ID,
		Name:            e.Name,
		GroupID:         e.GroupID,
		StartTime:       e.StartTime,
		DurationMinutes: int(e.Duration.Minutes()),
		EndTime:         e.EndTime,
		DaysOfWeek:      e.DaysOfWeek,
		Cancelled:       e.Cancelled,
	}
}

// InvitationResponse is the JSON form of a pending invite or request.
type InvitationResponse struct {
	UserID    int64     `json:"user_id"`
	CarpoolID int64     `json:"carpool_id"`
	IsRequest bool      `json:"is_request"`
	Kind      string    `json:"kind"`
	SentTime  time.Time `json:"sent_time"`
}

// NewInvitationResponses converts a list of invitations. The result is never nil.
func NewInvitationResponses(invs []*domain.Invitation) []InvitationResponse {
	out := make([]InvitationResponse, 0, len(invs))
	for _, inv := range invs {
		out = append(out, InvitationResponse{
			UserID:    inv.UserID,
			CarpoolID: inv.CarpoolID,
			IsRequest: inv.IsRequest,
			Kind:      inv.Kind(),
			SentTime:  inv.SentTime,
		})
	}
	return out
}

// InvitationViewResponse is an invitation with its user and carpool names.
type InvitationViewResponse struct {
	User      domain.UserPreview `json:"user"`
	Carpool   CarpoolPreview     `json:"carpool"`
	IsRequest bool               `json:"is_request"`
	SentTime  time.Time          `json:"sent_time"`
}

// CarpoolPreview is the id and name of a carpool.
type CarpoolPreview struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// NewInvitationViewResponses converts a list of invitation views. The result is never nil.
func NewInvitationViewResponses(views []*domain.InvitationView) []InvitationViewResponse {
	out := make([]InvitationViewResponse, 0, len(views))
	for _, v := range views {
		out = append(out, InvitationViewResponse{
			User:      v.User,
			Carpool:   CarpoolPreview{ID: v.CarpoolID, Name: v.Carpool},
			IsRequest: v.IsRequest,
			SentTime:  v.SentTime,
		})
	}
	return out
}

// UserPreviews returns previews as a non-nil slice.
func UserPreviews(ps []domain.UserPreview) []domain.UserPreview {
	if ps == nil {
		return []domain.UserPreview{}
	}
	return ps
}
