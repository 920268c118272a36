package carpool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wheelshare/wheelshare-api/pkg/domain"
)

// CreateOutcome describes what InvitationService.Create did.
type CreateOutcome int

const (
	// OutcomeCreated means a new invitation or request was stored.
	OutcomeCreated CreateOutcome = iota
	// OutcomeUnchanged means a record with the same direction already existed.
	OutcomeUnchanged
	// OutcomeResolved means an opposite-direction record existed and the user
	// became a member.
	OutcomeResolved
)

func (o CreateOutcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// InvitationService owns the invitation state machine for each
// (user, carpool) pair: absent, invited, requested, and back to absent
// through Execute (membership) or Delete (declined or withdrawn).
type InvitationService struct {
	store    Store
	notifier Notifier
	logger   *slog.Logger
}

// NewInvitationService creates a new invitation service.
func NewInvitationService(store Store, notifier Notifier, logger *slog.Logger) *InvitationService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &InvitationService{
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// Create records an invite (isRequest=false) or a join request
// (isRequest=true) for the pair.
//
// An existing record with the same direction makes this a no-op. An existing
// record with the opposite direction is resolved through Execute, so a mutual
// invite and request always ends in membership.
func (s *InvitationService) Create(ctx context.Context, userID, carpoolID int64, isRequest bool) (CreateOutcome, error) {
	var (
		outcome  CreateOutcome
		carpool  *domain.Carpool
		consumed *domain.Invitation
	)

	err := s.store.WithTx(ctx, func(tx Store) error {
		c, err := tx.Carpools().Lock(ctx, carpoolID)
		if err != nil {
			return err
		}
		carpool = c

		member, err := tx.Carpools().IsMember(ctx, carpoolID, userID)
		if err != nil {
			return fmt.Errorf("failed to check carpool membership: %w", err)
		}
		if member {
			return domain.ErrAlreadyMember
		}

		existing, err := tx.Invitations().Get(ctx, userID, carpoolID)
		if err != nil && !errors.Is(err, domain.ErrInvitationNotFound) {
			return fmt.Errorf("failed to get invitation: %w", err)
		}
		if existing == nil {
			inv := &domain.Invitation{
				UserID:    userID,
				CarpoolID: carpoolID,
				IsRequest: isRequest,
				SentTime:  time.Now(),
			}
			err = tx.Invitations().Create(ctx, inv)
			if err == nil {
				outcome = OutcomeCreated
				return nil
			}
			if !errors.Is(err, domain.ErrInvitationExists) {
				return fmt.Errorf("failed to create invitation: %w", err)
			}

			// Lost an insert race; settle against the winner's record.
			existing, err = tx.Invitations().Get(ctx, userID, carpoolID)
			if errors.Is(err, domain.ErrInvitationNotFound) {
				outcome = OutcomeUnchanged
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to get invitation: %w", err)
			}
		}

		if existing.IsRequest == isRequest {
			outcome = OutcomeUnchanged
			return nil
		}

		consumed, err = s.execute(ctx, tx, userID, carpoolID, nil)
		if err != nil {
			return err
		}
		outcome = OutcomeResolved
		return nil
	})
	if err != nil {
		return outcome, err
	}

	switch outcome {
	case OutcomeCreated:
		if isRequest {
			s.notify("request", userID, carpoolID, s.notifier.NotifyRequested(ctx, userID, carpool.CreatorID, carpoolID))
		} else {
			s.notify("invite", userID, carpoolID, s.notifier.NotifyInvited(ctx, userID, carpoolID))
		}
	case OutcomeResolved:
		s.notifyAccepted(ctx, consumed)
	}

	s.logger.Info("invitation created",
		"user_id", userID,
		"carpool_id", carpoolID,
		"is_request", isRequest,
		"outcome", outcome.String(),
	)
	return outcome, nil
}

// Execute resolves the pending invitation or request for the pair into
// membership. The invitation delete and the member insert commit together.
// Returns domain.ErrCarpoolNotFound if the carpool is gone and
// domain.ErrInvalidStateTransition if nothing is pending.
func (s *InvitationService) Execute(ctx context.Context, userID, carpoolID int64) error {
	return s.resolve(ctx, userID, carpoolID, nil)
}

// Accept is Execute restricted to one direction: isRequest=false accepts an
// invite, isRequest=true approves a join request. A pending record of the
// other direction is left untouched and domain.ErrInvalidStateTransition is
// returned.
func (s *InvitationService) Accept(ctx context.Context, userID, carpoolID int64, isRequest bool) error {
	return s.resolve(ctx, userID, carpoolID, &isRequest)
}

func (s *InvitationService) resolve(ctx context.Context, userID, carpoolID int64, isRequest *bool) error {
	var consumed *domain.Invitation
	err := s.store.WithTx(ctx, func(tx Store) error {
		if _, err := tx.Carpools().Lock(ctx, carpoolID); err != nil {
			return err
		}
		inv, err := s.execute(ctx, tx, userID, carpoolID, isRequest)
		if err != nil {
			return err
		}
		consumed = inv
		return nil
	})
	if err != nil {
		return err
	}

	s.notifyAccepted(ctx, consumed)
	s.logger.Info("invitation executed",
		"user_id", userID,
		"carpool_id", carpoolID,
		"is_request", consumed.IsRequest,
	)
	return nil
}

// execute expects the caller to hold the carpool row lock, taken before any
// invitation row in the same order as Leave and Delete.
func (s *InvitationService) execute(ctx context.Context, tx Store, userID, carpoolID int64, isRequest *bool) (*domain.Invitation, error) {
	inv, err := tx.Invitations().Take(ctx, userID, carpoolID, isRequest)
	if errors.Is(err, domain.ErrInvitationNotFound) {
		return nil, domain.ErrInvalidStateTransition
	}
	if err != nil {
		return nil, fmt.Errorf("failed to take invitation: %w", err)
	}
	if err := tx.Carpools().AddMember(ctx, carpoolID, userID); err != nil {
		return nil, fmt.Errorf("failed to add carpool member: %w", err)
	}
	return inv, nil
}

// Delete removes the pending invitation or request for the pair without
// granting membership. Returns domain.ErrInvalidStateTransition if nothing
// is pending.
func (s *InvitationService) Delete(ctx context.Context, userID, carpoolID int64) error {
	return s.remove(ctx, userID, carpoolID, nil)
}

// Decline is Delete restricted to one direction: isRequest=false declines or
// revokes an invite, isRequest=true withdraws or denies a join request.
func (s *InvitationService) Decline(ctx context.Context, userID, carpoolID int64, isRequest bool) error {
	return s.remove(ctx, userID, carpoolID, &isRequest)
}

func (s *InvitationService) remove(ctx context.Context, userID, carpoolID int64, isRequest *bool) error {
	inv, err := s.store.Invitations().Take(ctx, userID, carpoolID, isRequest)
	if errors.Is(err, domain.ErrInvitationNotFound) {
		return domain.ErrInvalidStateTransition
	}
	if err != nil {
		return fmt.Errorf("failed to delete invitation: %w", err)
	}

	s.logger.Info("invitation deleted",
		"user_id", userID,
		"carpool_id", carpoolID,
		"is_request", inv.IsRequest,
	)
	return nil
}

// ForCarpool returns every pending invitation and request of the carpool.
func (s *InvitationService) ForCarpool(ctx context.Context, carpoolID int64) ([]*domain.Invitation, error) {
	if _, err := s.store.Carpools().GetByID(ctx, carpoolID); err != nil {
		return nil, err
	}
	return s.store.Invitations().ListByCarpool(ctx, carpoolID)
}

// ReceivedInvitations returns invites addressed to the user.
func (s *InvitationService) ReceivedInvitations(ctx context.Context, userID int64) ([]*domain.InvitationView, error) {
	return s.store.Invitations().ListForUser(ctx, userID, false)
}

// SentRequests returns join requests the user has sent.
func (s *InvitationService) SentRequests(ctx context.Context, userID int64) ([]*domain.InvitationView, error) {
	return s.store.Invitations().ListForUser(ctx, userID, true)
}

// ReceivedRequests returns join requests into carpools the user belongs to.
func (s *InvitationService) ReceivedRequests(ctx context.Context, userID int64) ([]*domain.InvitationView, error) {
	return s.store.Invitations().ListForMemberCarpools(ctx, userID, true)
}

// SentInvitations returns invites sent from carpools the user belongs to.
func (s *InvitationService) SentInvitations(ctx context.Context, userID int64) ([]*domain.InvitationView, error) {
	return s.store.Invitations().ListForMemberCarpools(ctx, userID, false)
}

func (s *InvitationService) notifyAccepted(ctx context.Context, consumed *domain.Invitation) {
	if consumed == nil || !consumed.IsRequest {
		return
	}
	s.notify("request accepted", consumed.UserID, consumed.CarpoolID,
		s.notifier.NotifyRequestAccepted(ctx, consumed.UserID, consumed.CarpoolID))
}

func (s *InvitationService) notify(kind string, userID, carpoolID int64, err error) {
	if err != nil {
		s.logger.Error("failed to send notification",
			"kind", kind,
			"error", err,
			"user_id", userID,
			"carpool_id", carpoolID,
		)
	}
}
