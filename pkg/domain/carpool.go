package domain

import "time"

// Carpool is a set of users travelling together to an event.
// A carpool record exists only while it has at least one member.
type Carpool struct {
	ID        int64
	Name      string
	EventID   int64
	CreatorID int64
	Note      *string
	CreatedAt time.Time
}

// CarpoolMember is a user's membership in a carpool.
type CarpoolMember struct {
	CarpoolID int64
	UserID    int64
	JoinedAt  time.Time
}
