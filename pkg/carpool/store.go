package carpool

import (
	"context"

	"github.com/wheelshare/wheelshare-api/pkg/domain"
)

// CarpoolRepository persists carpools and their member sets.
type CarpoolRepository interface {
	// Create inserts the carpool and sets its ID.
	Create(ctx context.Context, c *domain.Carpool) error
	GetByID(ctx context.Context, id int64) (*domain.Carpool, error)
	// Lock takes a row lock on the carpool for the rest of the transaction.
	Lock(ctx context.Context, id int64) (*domain.Carpool, error)
	Delete(ctx context.Context, id int64) error
	UpdateNote(ctx context.Context, id int64, note *string) error
	UpdateCreator(ctx context.Context, id, creatorID int64) error
	ListByEvent(ctx context.Context, eventID int64) ([]*domain.Carpool, error)
	ListActiveByMember(ctx context.Context, userID int64) ([]*domain.Carpool, error)

	AddMember(ctx context.Context, carpoolID, userID int64) error
	// RemoveMember returns domain.ErrNotMember if the user was not a member.
	RemoveMember(ctx context.Context, carpoolID, userID int64) error
	DeleteMembers(ctx context.Context, carpoolID int64) error
	IsMember(ctx context.Context, carpoolID, userID int64) (bool, error)
	// ListMembers returns members ordered by join time, oldest first.
	ListMembers(ctx context.Context, carpoolID int64) ([]*domain.CarpoolMember, error)
	CountMembers(ctx context.Context, carpoolID int64) (int, error)
	// ListMemberIDsByEvent returns the ids of every member of every carpool of the event.
	ListMemberIDsByEvent(ctx context.Context, eventID int64) ([]int64, error)
}

// InvitationRepository persists invitations and join requests.
type InvitationRepository interface {
	// Create returns domain.ErrInvitationExists when the pair already has a record.
	Create(ctx context.Context, inv *domain.Invitation) error
	Get(ctx context.Context, userID, carpoolID int64) (*domain.Invitation, error)
	// Take deletes and returns the invitation for the pair. When isRequest is
	// non-nil only a record with that direction is taken. Returns
	// domain.ErrInvitationNotFound when nothing matched.
	Take(ctx context.Context, userID, carpoolID int64, isRequest *bool) (*domain.Invitation, error)
	DeleteByCarpool(ctx context.Context, carpoolID int64) error
	ListByCarpool(ctx context.Context, carpoolID int64) ([]*domain.Invitation, error)
	// ListForUser returns invitations addressed to or sent by the user.
	ListForUser(ctx context.Context, userID int64, isRequest bool) ([]*domain.InvitationView, error)
	// ListForMemberCarpools returns invitations of carpools the user is a member of.
	ListForMemberCarpools(ctx context.Context, userID int64, isRequest bool) ([]*domain.InvitationView, error)
}

// EventRepository reads events and their signups.
type EventRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Event, error)
	ListSignupUsers(ctx context.Context, eventID int64) ([]domain.UserPreview, error)
}

// GroupRepository answers group membership questions.
type GroupRepository interface {
	IsMember(ctx context.Context, groupID, userID int64) (bool, error)
}

// UserRepository reads users.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetPreviews(ctx context.Context, ids []int64) ([]domain.UserPreview, error)
}

// MessageRepository persists carpool chat messages.
type MessageRepository interface {
	Create(ctx context.Context, m *domain.Message) error
	GetByID(ctx context.Context, id int64) (*domain.Message, error)
	ListByCarpool(ctx context.Context, carpoolID int64) ([]*domain.Message, error)
	MarkRemoved(ctx context.Context, id int64) error
	DeleteByCarpool(ctx context.Context, carpoolID int64) error
}

// Store gives access to the repositories bound to one database handle.
// WithTx runs fn against repositories bound to a single transaction, which is
// committed when fn returns nil and rolled back otherwise.
type Store interface {
	Carpools() CarpoolRepository
	Invitations() InvitationRepository
	Events() EventRepository
	Groups() GroupRepository
	Users() UserRepository
	Messages() MessageRepository
	WithTx(ctx context.Context, fn func(tx Store) error) error
}

// Notifier tells users about invitation activity. Implementations may deliver
// asynchronously; errors are logged by the caller and never fail a transition.
type Notifier interface {
	NotifyInvited(ctx context.Context, inviteeID, carpoolID int64) error
	NotifyRequested(ctx context.Context, requesterID, ownerID, carpoolID int64) error
	NotifyRequestAccepted(ctx context.Context, requesterID, carpoolID int64) error
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) NotifyInvited(context.Context, int64, int64) error          { return nil }
func (NopNotifier) NotifyRequested(context.Context, int64, int64, int64) error { return nil }
func (NopNotifier) NotifyRequestAccepted(context.Context, int64, int64) error  { return nil }
