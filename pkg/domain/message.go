package domain

import "time"

// Message is a chat message posted to a carpool.
type Message struct {
	ID        int64
	CarpoolID int64
	UserID    int64
	Content   string
	SentTime  time.Time
	Removed   bool
}
