package domain

import "time"

// Invitation is a pending link between a user and a carpool.
//
// IsRequest=false is an invite sent by the carpool to the user.
// IsRequest=true is a request sent by the user to the carpool.
// At most one invitation exists per (UserID, CarpoolID).
type Invitation struct {
	UserID    int64
	CarpoolID int64
	IsRequest bool
	SentTime  time.Time
}

// Kind returns "request" or "invite".
func (i *Invitation) Kind() string {
	if i.IsRequest {
		return "request"
	}
	return "invite"
}

// InvitationView is an invitation joined with its user and carpool names.
type InvitationView struct {
	User      UserPreview
	CarpoolID int64
	Carpool   string
	IsRequest bool
	SentTime  time.Time
}
