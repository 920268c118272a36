package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/wheelshare/wheelshare-api/pkg/domain"
)

var invitationForeignKeys = map[string]error{
	"invitations_user_id_fkey":    domain.ErrUserNotFound,
	"invitations_carpool_id_fkey": domain.ErrCarpoolNotFound,
}

// InvitationsRepository handles invitation and join request persistence.
type InvitationsRepository struct {
	q Querier
}

// NewInvitationsRepository creates a new invitations repository.
func NewInvitationsRepository(q Querier) *InvitationsRepository {
	return &InvitationsRepository{q: q}
}

// Create inserts an invitation. A record already present for the pair is
// reported as domain.ErrInvitationExists without aborting the transaction.
func (r *InvitationsRepository) Create(ctx context.Context, inv *domain.Invitation) error {
	query := `
		INSERT INTO invitations (user_id, carpool_id, is_request, sent_time)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, carpool_id) DO NOTHING
	`
	result, err := r.q.ExecContext(ctx, query, inv.UserID, inv.CarpoolID, inv.IsRequest, inv.SentTime)
	if target := foreignKeyTarget(err, invitationForeignKeys); target != nil {
		return target
	}
	if isUniqueViolation(err) {
		return domain.ErrInvitationExists
	}
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrInvitationExists
	}
	return nil
}

// Get retrieves the invitation for a pair.
func (r *InvitationsRepository) Get(ctx context.Context, userID, carpoolID int64) (*domain.Invitation, error) {
	query := `
		SELECT user_id, carpool_id, is_request, sent_time
		FROM invitations
		WHERE user_id = $1 AND carpool_id = $2
	`
	inv := &domain.Invitation{}
	err := r.q.QueryRowContext(ctx, query, userID, carpoolID).Scan(
		&inv.UserID, &inv.CarpoolID, &inv.IsRequest, &inv.SentTime,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrInvitationNotFound
	}
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// Take deletes and returns the invitation for a pair in one statement, so two
// concurrent takes cannot both succeed. A non-nil isRequest restricts the
// direction.
func (r *InvitationsRepository) Take(ctx context.Context, userID, carpoolID int64, isRequest *bool) (*domain.Invitation, error) {
	query := `
		DELETE FROM invitations
		WHERE user_id = $1 AND carpool_id = $2
		  AND ($3::boolean IS NULL OR is_request = $3)
		RETURNING user_id, carpool_id, is_request, sent_time
	`
	inv := &domain.Invitation{}
	err := r.q.QueryRowContext(ctx, query, userID, carpoolID, isRequest).Scan(
		&inv.UserID, &inv.CarpoolID, &inv.IsRequest, &inv.SentTime,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrInvitationNotFound
	}
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// DeleteByCarpool deletes every invitation of the carpool.
func (r *InvitationsRepository) DeleteByCarpool(ctx context.Context, carpoolID int64) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM invitations WHERE carpool_id = $1`, carpoolID)
	return err
}

// ListByCarpool returns the carpool's pending invitations and requests, oldest first.
func (r *InvitationsRepository) ListByCarpool(ctx context.Context, carpoolID int64) ([]*domain.Invitation, error) {
	query := `
		SELECT user_id, carpool_id, is_request, sent_time
		FROM invitations
		WHERE carpool_id = $1
		ORDER BY sent_time, user_id
	`
	rows, err := r.q.QueryContext(ctx, query, carpoolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invitations []*domain.Invitation
	for rows.Next() {
		inv := &domain.Invitation{}
		if err := rows.Scan(&inv.UserID, &inv.CarpoolID, &inv.IsRequest, &inv.SentTime); err != nil {
			return nil, err
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

const invitationViewSelect = `
	SELECT i.user_id, u.name, i.carpool_id, c.name, i.is_request, i.sent_time
	FROM invitations i
	JOIN users u ON u.id = i.user_id
	JOIN carpools c ON c.id = i.carpool_id
`

// ListForUser returns the invitations addressed to the user (isRequest=false)
// or the requests the user sent (isRequest=true).
func (r *InvitationsRepository) ListForUser(ctx context.Context, userID int64, isRequest bool) ([]*domain.InvitationView, error) {
	query := invitationViewSelect + `
		WHERE i.user_id = $1 AND i.is_request = $2
		ORDER BY i.sent_time, i.carpool_id
	`
	return r.listViews(ctx, query, userID, isRequest)
}

// ListForMemberCarpools returns the invitations or requests of every carpool
// the user is a member of.
func (r *InvitationsRepository) ListForMemberCarpools(ctx context.Context, userID int64, isRequest bool) ([]*domain.InvitationView, error) {
	query := invitationViewSelect + `
		WHERE i.is_request = $2
		  AND EXISTS (
		      SELECT 1 FROM carpool_members m
		      WHERE m.carpool_id = i.carpool_id AND m.user_id = $1
		  )
		ORDER BY i.sent_time, i.carpool_id, i.user_id
	`
	return r.listViews(ctx, query, userID, isRequest)
}

func (r *InvitationsRepository) listViews(ctx context.Context, query string, userID int64, isRequest bool) ([]*domain.InvitationView, error) {
	rows, err := r.q.QueryContext(ctx, query, userID, isRequest)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []*domain.InvitationView
	for rows.Next() {
		v := &domain.InvitationView{}
		if err := rows.Scan(&v.User.ID, &v.User.Name, &v.CarpoolID, &v.Carpool, &v.IsRequest, &v.SentTime); err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, rows.Err()
}
