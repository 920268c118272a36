package repository

import (
	"context"

	"github.com/wheelshare/wheelshare-api/pkg/domain"
)

// GroupsRepository handles group persistence.
type GroupsRepository struct {
	q Querier
}

// NewGroupsRepository creates a new groups repository.
func NewGroupsRepository(q Querier) *GroupsRepository {
	return &GroupsRepository{q: q}
}

// Create creates a group and sets its ID.
func (r *GroupsRepository) Create(ctx context.Context, g *domain.Group) error {
	query := `INSERT INTO groups (name, join_code) VALUES ($1, $2) RETURNING id`
	return r.q.QueryRowContext(ctx, query, g.Name, g.JoinCode).Scan(&g.ID)
}

// AddMember adds a user to a group.
func (r *GroupsRepository) AddMember(ctx context.Context, groupID, userID int64) error {
	query := `
		INSERT INTO group_users (group_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (group_id, user_id) DO NOTHING
	`
	_, err := r.q.ExecContext(ctx, query, groupID, userID)
	return err
}

// IsMember checks whether the user belongs to the group.
func (r *GroupsRepository) IsMember(ctx context.Context, groupID, userID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM group_users WHERE group_id = $1 AND user_id = $2)`
	var exists bool
	err := r.q.QueryRowContext(ctx, query, groupID, userID).Scan(&exists)
	return exists, err
}
