package carpool

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wheelshare/wheelshare-api/pkg/domain"
)

// CarpoolService owns carpool creation, membership changes and deletion.
// A carpool whose last member leaves is deleted in the same transaction,
// after its invitations and messages.
type CarpoolService struct {
	store    Store
	notifier Notifier
	logger   *slog.Logger
}

// NewCarpoolService creates a new carpool service.
func NewCarpoolService(store Store, notifier Notifier, logger *slog.Logger) *CarpoolService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CarpoolService{
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// CreateParams holds the input for CarpoolService.Create.
type CreateParams struct {
	Name           string
	UserID         int64
	EventID        int64
	InvitedUserIDs []int64
	Note           *string
}

// Details is the read projection of a carpool.
type Details struct {
	Carpool     *domain.Carpool
	Event       *domain.Event
	Members     []domain.UserPreview
	Invitations []*domain.Invitation
}

// Create creates a carpool with the creator as its only member and one
// invite per invited user, all in one transaction. Invite notifications are
// sent after commit.
func (s *CarpoolService) Create(ctx context.Context, p CreateParams) (*domain.Carpool, error) {
	name := cleanText(p.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidRequest)
	}

	invitees := uniqueInvitees(p.InvitedUserIDs, p.UserID)
	carpool := &domain.Carpool{
		Name:      name,
		EventID:   p.EventID,
		CreatorID: p.UserID,
		Note:      cleanOptional(p.Note),
		CreatedAt: time.Now(),
	}

	err := s.store.WithTx(ctx, func(tx Store) error {
		if _, err := tx.Events().GetByID(ctx, p.EventID); err != nil {
			return err
		}
		if err := tx.Carpools().Create(ctx, carpool); err != nil {
			return fmt.Errorf("failed to create carpool: %w", err)
		}
		if err := tx.Carpools().AddMember(ctx, carpool.ID, p.UserID); err != nil {
			return fmt.Errorf("failed to add creator to carpool: %w", err)
		}
		for _, inviteeID := range invitees {
			inv := &domain.Invitation{
				UserID:    inviteeID,
				CarpoolID: carpool.ID,
				IsRequest: false,
				SentTime:  carpool.CreatedAt,
			}
			if err := tx.Invitations().Create(ctx, inv); err != nil {
				return fmt.Errorf("failed to invite user %d: %w", inviteeID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, inviteeID := range invitees {
		if err := s.notifier.NotifyInvited(ctx, inviteeID, carpool.ID); err != nil {
			s.logger.Error("failed to send notification",
				"kind", "invite",
				"error", err,
				"user_id", inviteeID,
				"carpool_id", carpool.ID,
			)
		}
	}

	s.logger.Info("carpool created",
		"carpool_id", carpool.ID,
		"event_id", carpool.EventID,
		"creator_id", carpool.CreatorID,
		"invited", len(invitees),
	)
	return carpool, nil
}

// Leave removes the user from the carpool. When no members remain the
// carpool is deleted together with its invitations and messages. When the
// creator leaves a carpool that still has members, the earliest-joined
// remaining member becomes the creator.
//
// Returns true if the carpool was deleted.
func (s *CarpoolService) Leave(ctx context.Context, carpoolID, userID int64) (bool, error) {
	var deleted bool
	err := s.store.WithTx(ctx, func(tx Store) error {
		c, err := tx.Carpools().Lock(ctx, carpoolID)
		if err != nil {
			return err
		}
		if err := tx.Carpools().RemoveMember(ctx, carpoolID, userID); err != nil {
			return err
		}

		// Counted after the removal, under the row lock.
		remaining, err := tx.Carpools().CountMembers(ctx, carpoolID)
		if err != nil {
			return fmt.Errorf("failed to count carpool members: %w", err)
		}
		if remaining == 0 {
			deleted = true
			return deleteCarpool(ctx, tx, carpoolID)
		}

		if c.CreatorID == userID {
			members, err := tx.Carpools().ListMembers(ctx, carpoolID)
			if err != nil {
				return fmt.Errorf("failed to list carpool members: %w", err)
			}
			if err := tx.Carpools().UpdateCreator(ctx, carpoolID, members[0].UserID); err != nil {
				return fmt.Errorf("failed to transfer carpool: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	s.logger.Info("carpool member left",
		"carpool_id", carpoolID,
		"user_id", userID,
		"carpool_deleted", deleted,
	)
	return deleted, nil
}

// Delete deletes the carpool regardless of its members, removing its
// invitations, messages and memberships first.
func (s *CarpoolService) Delete(ctx context.Context, carpoolID int64) error {
	err := s.store.WithTx(ctx, func(tx Store) error {
		if _, err := tx.Carpools().Lock(ctx, carpoolID); err != nil {
			return err
		}
		return deleteCarpool(ctx, tx, carpoolID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("carpool deleted", "carpool_id", carpoolID)
	return nil
}

func deleteCarpool(ctx context.Context, tx Store, carpoolID int64) error {
	if err := tx.Invitations().DeleteByCarpool(ctx, carpoolID); err != nil {
		return fmt.Errorf("failed to delete carpool invitations: %w", err)
	}
	if err := tx.Messages().DeleteByCarpool(ctx, carpoolID); err != nil {
		return fmt.Errorf("failed to delete carpool messages: %w", err)
	}
	if err := tx.Carpools().DeleteMembers(ctx, carpoolID); err != nil {
		return fmt.Errorf("failed to delete carpool members: %w", err)
	}
	if err := tx.Carpools().Delete(ctx, carpoolID); err != nil {
		return fmt.Errorf("failed to delete carpool: %w", err)
	}
	return nil
}

// Get returns the carpool with its event, members and pending invitations.
func (s *CarpoolService) Get(ctx context.Context, carpoolID int64) (*Details, error) {
	c, err := s.store.Carpools().GetByID(ctx, carpoolID)
	if err != nil {
		return nil, err
	}

	event, err := s.store.Events().GetByID(ctx, c.EventID)
	if err != nil {
		return nil, err
	}

	members, err := s.members(ctx, carpoolID)
	if err != nil {
		return nil, err
	}

	invitations, err := s.store.Invitations().ListByCarpool(ctx, carpoolID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}

	return &Details{
		Carpool:     c,
		Event:       event,
		Members:     members,
		Invitations: invitations,
	}, nil
}

func (s *CarpoolService) members(ctx context.Context, carpoolID int64) ([]domain.UserPreview, error) {
	memberships, err := s.store.Carpools().ListMembers(ctx, carpoolID)
	if err != nil {
		return nil, fmt.Errorf("failed to list carpool members: %w", err)
	}

	ids := make([]int64, len(memberships))
	for i, m := range memberships {
		ids[i] = m.UserID
	}
	previews, err := s.store.Users().GetPreviews(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get member profiles: %w", err)
	}

	byID := make(map[int64]domain.UserPreview, len(previews))
	for _, p := range previews {
		byID[p.ID] = p
	}
	members := make([]domain.UserPreview, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			members = append(members, p)
		}
	}
	return members, nil
}

// PotentialInvitees returns the users signed up for the carpool's event who
// are not a member of any carpool of that event.
func (s *CarpoolService) PotentialInvitees(ctx context.Context, carpoolID int64) ([]domain.UserPreview, error) {
	c, err := s.store.Carpools().GetByID(ctx, carpoolID)
	if err != nil {
		return nil, err
	}

	signups, err := s.store.Events().ListSignupUsers(ctx, c.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list event signups: %w", err)
	}
	memberIDs, err := s.store.Carpools().ListMemberIDsByEvent(ctx, c.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list event carpool members: %w", err)
	}

	taken := make(map[int64]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		taken[id] = struct{}{}
	}

	invitees := make([]domain.UserPreview, 0, len(signups))
	for _, u := range signups {
		if _, ok := taken[u.ID]; !ok {
			invitees = append(invitees, u)
		}
	}
	return invitees, nil
}

// ActiveForUser returns the user's carpools whose event has not ended.
func (s *CarpoolService) ActiveForUser(ctx context.Context, userID int64) ([]*domain.Carpool, error) {
	return s.store.Carpools().ListActiveByMember(ctx, userID)
}

// UpdateNote sets or clears the carpool's note.
func (s *CarpoolService) UpdateNote(ctx context.Context, carpoolID int64, note *string) error {
	return s.store.Carpools().UpdateNote(ctx, carpoolID, cleanOptional(note))
}

func uniqueInvitees(ids []int64, creatorID int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id == creatorID {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
