package domain

import "time"

// Event is a recurring or one-off occasion that carpools are organized around.
type Event struct {
	ID         int64
	Name       string
	GroupID    *int64
	CreatorID  int64
	StartTime  time.Time
	Duration   time.Duration
	EndTime    *time.Time
	DaysOfWeek int
	Cancelled  bool
}

// HasEnded reports whether the event's last occurrence is before now.
// Events without an end time never end.
func (e *Event) HasEnded(now time.Time) bool {
	if e.EndTime == nil {
		return false
	}
	return e.EndTime.Before(now)
}

// EventSignup records that a user plans to attend an event.
type EventSignup struct {
	EventID  int64
	UserID   int64
	CanDrive bool
	Note     *string
}
