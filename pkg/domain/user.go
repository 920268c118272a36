package domain

// User is a person known to the system. Profiles are created by the OAuth
// collaborators; the carpool core only reads them.
type User struct {
	ID    int64
	Name  string
	Email string
	Bio   *string
}

// UserPreview is the subset of a user shown alongside carpools and invitations.
type UserPreview struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Preview returns the public preview of the user.
func (u *User) Preview() UserPreview {
	return UserPreview{ID: u.ID, Name: u.Name}
}
