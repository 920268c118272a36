package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/wheelshare/wheelshare-api/pkg/domain"
)

var carpoolForeignKeys = map[string]error{
	"carpools_event_id_fkey":          domain.ErrEventNotFound,
	"carpools_creator_id_fkey":        domain.ErrUserNotFound,
	"carpool_members_carpool_id_fkey": domain.ErrCarpoolNotFound,
	"carpool_members_user_id_fkey":    domain.ErrUserNotFound,
}

const carpoolColumns = `id, name, event_id, creator_id, note, created_at`

// CarpoolsRepository handles carpool and carpool member persistence.
type CarpoolsRepository struct {
	q Querier
}

// NewCarpoolsRepository creates a new carpools repository.
func NewCarpoolsRepository(q Querier) *CarpoolsRepository {
	return &CarpoolsRepository{q: q}
}

// Create inserts a carpool and sets its ID.
func (r *CarpoolsRepository) Create(ctx context.Context, c *domain.Carpool) error {
	query := `
		INSERT INTO carpools (name, event_id, creator_id, note, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.q.QueryRowContext(ctx, query, c.Name, c.EventID, c.CreatorID, c.Note, c.CreatedAt).Scan(&c.ID)
	if target := foreignKeyTarget(err, carpoolForeignKeys); target != nil {
		return target
	}
	return err
}

// GetByID retrieves a carpool by ID.
func (r *CarpoolsRepository) GetByID(ctx context.Context, id int64) (*domain.Carpool, error) {
	query := `SELECT ` + carpoolColumns + ` FROM carpools WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// Lock retrieves a carpool and locks its row until the transaction ends.
// Concurrent leaves of the same carpool serialize on this lock.
func (r *CarpoolsRepository) Lock(ctx context.Context, id int64) (*domain.Carpool, error) {
	query := `SELECT ` + carpoolColumns + ` FROM carpools WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, query, id)
}

func (r *CarpoolsRepository) getOne(ctx context.Context, query string, id int64) (*domain.Carpool, error) {
	c := &domain.Carpool{}
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.EventID, &c.CreatorID, &c.Note, &c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCarpoolNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Delete deletes a carpool. Members, invitations and messages must already
// be gone; the foreign keys reject the delete otherwise.
func (r *CarpoolsRepository) Delete(ctx context.Context, id int64) error {
	return r.execOne(ctx, `DELETE FROM carpools WHERE id = $1`, id)
}

// UpdateNote sets the carpool note. A nil note clears it.
func (r *CarpoolsRepository) UpdateNote(ctx context.Context, id int64, note *string) error {
	return r.execOne(ctx, `UPDATE carpools SET note = $2 WHERE id = $1`, id, note)
}

// UpdateCreator transfers carpool ownership.
func (r *CarpoolsRepository) UpdateCreator(ctx context.Context, id, creatorID int64) error {
	return r.execOne(ctx, `UPDATE carpools SET creator_id = $2 WHERE id = $1`, id, creatorID)
}

func (r *CarpoolsRepository) execOne(ctx context.Context, query string, args ...any) error {
	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrCarpoolNotFound
	}
	return nil
}

// ListByEvent returns the carpools of an event.
func (r *CarpoolsRepository) ListByEvent(ctx context.Context, eventID int64) ([]*domain.Carpool, error) {
	query := `SELECT ` + carpoolColumns + ` FROM carpools WHERE event_id = $1 ORDER BY id`
	return r.list(ctx, query, eventID)
}

// ListActiveByMember returns the carpools the user belongs to whose event
// has no end time or ends in the future.
func (r *CarpoolsRepository) ListActiveByMember(ctx context.Context, userID int64) ([]*domain.Carpool, error) {
	query := `
		SELECT c.id, c.name, c.event_id, c.creator_id, c.note, c.created_at
		FROM carpools c
		JOIN carpool_members m ON m.carpool_id = c.id
		JOIN events e ON e.id = c.event_id
		WHERE m.user_id = $1 AND (e.end_time IS NULL OR e.end_time >= NOW())
		ORDER BY c.id
	`
	return r.list(ctx, query, userID)
}

func (r *CarpoolsRepository) list(ctx context.Context, query string, arg int64) ([]*domain.Carpool, error) {
	rows, err := r.q.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var carpools []*domain.Carpool
	for rows.Next() {
		c := &domain.Carpool{}
		if err := rows.Scan(&c.ID, &c.Name, &c.EventID, &c.CreatorID, &c.Note, &c.CreatedAt); err != nil {
			return nil, err
		}
		carpools = append(carpools, c)
	}
	return carpools, rows.Err()
}

// AddMember adds a user to the carpool. Adding an existing member is a no-op.
func (r *CarpoolsRepository) AddMember(ctx context.Context, carpoolID, userID int64) error {
	query := `
		INSERT INTO carpool_members (carpool_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (carpool_id, user_id) DO NOTHING
	`
	_, err := r.q.ExecContext(ctx, query, carpoolID, userID)
	if target := foreignKeyTarget(err, carpoolForeignKeys); target != nil {
		return target
	}
	return err
}

// RemoveMember removes a user from the carpool.
func (r *CarpoolsRepository) RemoveMember(ctx context.Context, carpoolID, userID int64) error {
	query := `DELETE FROM carpool_members WHERE carpool_id = $1 AND user_id = $2`
	result, err := r.q.ExecContext(ctx, query, carpoolID, userID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotMember
	}
	return nil
}

// DeleteMembers removes every member of the carpool.
func (r *CarpoolsRepository) DeleteMembers(ctx context.Context, carpoolID int64) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM carpool_members WHERE carpool_id = $1`, carpoolID)
	return err
}

// IsMember checks whether the user belongs to the carpool.
func (r *CarpoolsRepository) IsMember(ctx context.Context, carpoolID, userID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM carpool_members WHERE carpool_id = $1 AND user_id = $2)`
	var exists bool
	err := r.q.QueryRowContext(ctx, query, carpoolID, userID).Scan(&exists)
	return exists, err
}

// ListMembers returns the carpool's members, earliest joined first.
func (r *CarpoolsRepository) ListMembers(ctx context.Context, carpoolID int64) ([]*domain.CarpoolMember, error) {
	query := `
		SELECT carpool_id, user_id, joined_at
		FROM carpool_members
		WHERE carpool_id = $1
		ORDER BY joined_at, user_id
	`
	rows, err := r.q.QueryContext(ctx, query, carpoolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*domain.CarpoolMember
	for rows.Next() {
		m := &domain.CarpoolMember{}
		if err := rows.Scan(&m.CarpoolID, &m.UserID, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// CountMembers returns the number of members of the carpool.
func (r *CarpoolsRepository) CountMembers(ctx context.Context, carpoolID int64) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM carpool_members WHERE carpool_id = $1`, carpoolID).Scan(&n)
	return n, err
}

// ListMemberIDsByEvent returns every user that belongs to some carpool of the event.
func (r *CarpoolsRepository) ListMemberIDsByEvent(ctx context.Context, eventID int64) ([]int64, error) {
	query := `
		SELECT DISTINCT m.user_id
		FROM carpool_members m
		JOIN carpools c ON c.id = m.carpool_id
		WHERE c.event_id = $1
	`
	rows, err := r.q.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
