package carpool

import (
	"context"
	"fmt"

	"github.com/wheelshare/wheelshare-api/pkg/domain"
)

// Predicates answers authorization questions about carpools.
//
// A missing carpool, event or message yields false with a nil error; the
// error return is reserved for store failures. Predicates never mutate.
type Predicates struct {
	store Store
}

// NewPredicates creates the predicate engine.
func NewPredicates(store Store) *Predicates {
	return &Predicates{store: store}
}

// IsCarpoolMember reports whether the user is in the carpool's member set.
func (p *Predicates) IsCarpoolMember(ctx context.Context, carpoolID, userID int64) (bool, error) {
	ok, err := p.store.Carpools().IsMember(ctx, carpoolID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check carpool membership: %w", err)
	}
	return ok, nil
}

// IsCarpoolCreator reports whether the user created the carpool.
func (p *Predicates) IsCarpoolCreator(ctx context.Context, carpoolID, userID int64) (bool, error) {
	c, err := p.store.Carpools().GetByID(ctx, carpoolID)
	if err != nil {
		return falseIfMissing(err)
	}
	return c.CreatorID == userID, nil
}

// CanViewCarpool reports whether the carpool's event belongs to a group the
// user is in.
func (p *Predicates) CanViewCarpool(ctx context.Context, carpoolID, userID int64) (bool, error) {
	c, err := p.store.Carpools().GetByID(ctx, carpoolID)
	if err != nil {
		return falseIfMissing(err)
	}
	return p.inEventGroup(ctx, c.EventID, userID)
}

// CanAddCarpoolToEvent reports whether the user may create a carpool for the event.
func (p *Predicates) CanAddCarpoolToEvent(ctx context.Context, eventID, userID int64) (bool, error) {
	return p.inEventGroup(ctx, eventID, userID)
}

// CanManageCarpoolInvites reports whether the user may send or revoke invites.
func (p *Predicates) CanManageCarpoolInvites(ctx context.Context, carpoolID, userID int64) (bool, error) {
	return p.IsCarpoolCreator(ctx, carpoolID, userID)
}

// CanManageCarpoolRequests reports whether the user may accept or deny join requests.
func (p *Predicates) CanManageCarpoolRequests(ctx context.Context, carpoolID, userID int64) (bool, error) {
	return p.IsCarpoolCreator(ctx, carpoolID, userID)
}

// CanViewCarpoolInvitesAndRequests reports whether the user may list pending invitations.
func (p *Predicates) CanViewCarpoolInvitesAndRequests(ctx context.Context, carpoolID, userID int64) (bool, error) {
	return p.IsCarpoolCreator(ctx, carpoolID, userID)
}

// CanDeleteCarpool reports whether the user may delete the carpool outright.
func (p *Predicates) CanDeleteCarpool(ctx context.Context, carpoolID, userID int64) (bool, error) {
	return p.IsCarpoolCreator(ctx, carpoolID, userID)
}

// CanSendMessage reports whether the user may post to the carpool chat.
func (p *Predicates) CanSendMessage(ctx context.Context, carpoolID, userID int64) (bool, error) {
	return p.IsCarpoolMember(ctx, carpoolID, userID)
}

// CanRemoveMessage reports whether the user wrote the message.
func (p *Predicates) CanRemoveMessage(ctx context.Context, messageID, userID int64) (bool, error) {
	m, err := p.store.Messages().GetByID(ctx, messageID)
	if err != nil {
		return falseIfMissing(err)
	}
	return m.UserID == userID, nil
}

func (p *Predicates) inEventGroup(ctx context.Context, eventID, userID int64) (bool, error) {
	event, err := p.store.Events().GetByID(ctx, eventID)
	if err != nil {
		return falseIfMissing(err)
	}
	if event.GroupID == nil {
		return false, nil
	}
	ok, err := p.store.Groups().IsMember(ctx, *event.GroupID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check group membership: %w", err)
	}
	return ok, nil
}

func falseIfMissing(err error) (bool, error) {
	if domain.IsNotFound(err) {
		return false, nil
	}
	return false, err
}
