package domain

import "errors"

// Not found errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEventNotFound      = errors.New("event not found")
	ErrCarpoolNotFound    = errors.New("carpool not found")
	ErrMessageNotFound    = errors.New("message not found")
	ErrInvitationNotFound = errors.New("invitation not found")
	ErrNotMember          = errors.New("user is not a member of the carpool")
)

// State transition errors
var (
	ErrInvalidStateTransition = errors.New("no pending invitation or request for this user and carpool")
	ErrAlreadyMember          = errors.New("user is already a member of the carpool")
)

// Constraint errors
var (
	ErrInvitationExists = errors.New("invitation already exists")
)

// Authentication, authorization and validation errors
var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidRequest = errors.New("invalid request")
)

// IsNotFound reports whether err is one of the not found errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrEventNotFound) ||
		errors.Is(err, ErrCarpoolNotFound) ||
		errors.Is(err, ErrMessageNotFound) ||
		errors.Is(err, ErrInvitationNotFound) ||
		errors.Is(err, ErrNotMember)
}

// IsConflict reports whether err is a state transition error.
func IsConflict(err error) bool {
	return errors.Is(err, ErrInvalidStateTransition) || errors.Is(err, ErrAlreadyMember)
}
