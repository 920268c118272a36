package domain

// Group is a set of users that organizes events.
type Group struct {
	ID       int64
	Name     string
	JoinCode *string
}
