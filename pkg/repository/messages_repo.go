package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/wheelshare/wheelshare-api/pkg/domain"
)

var messageForeignKeys = map[string]error{
	"messages_carpool_id_fkey": domain.ErrCarpoolNotFound,
	"messages_user_id_fkey":    domain.ErrUserNotFound,
}

// MessagesRepository handles carpool chat persistence.
type MessagesRepository struct {
	q Querier
}

// NewMessagesRepository creates a new messages repository.
func NewMessagesRepository(q Querier) *MessagesRepository {
	return &MessagesRepository{q: q}
}

// Create inserts a message and sets its ID.
func (r *MessagesRepository) Create(ctx context.Context, m *domain.Message) error {
	query := `
		INSERT INTO messages (carpool_id, user_id, content, sent_time)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.q.QueryRowContext(ctx, query, m.CarpoolID, m.UserID, m.Content, m.SentTime).Scan(&m.ID)
	if target := foreignKeyTarget(err, messageForeignKeys); target != nil {
		return target
	}
	return err
}

// GetByID retrieves a message by ID.
func (r *MessagesRepository) GetByID(ctx context.Context, id int64) (*domain.Message, error) {
	query := `
		SELECT id, carpool_id, user_id, content, sent_time, removed
		FROM messages
		WHERE id = $1
	`
	m := &domain.Message{}
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&m.ID, &m.CarpoolID, &m.UserID, &m.Content, &m.SentTime, &m.Removed,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListByCarpool returns the carpool's messages, oldest first.
func (r *MessagesRepository) ListByCarpool(ctx context.Context, carpoolID int64) ([]*domain.Message, error) {
	query := `
		SELECT id, carpool_id, user_id, content, sent_time, removed
		FROM messages
		WHERE carpool_id = $1
		ORDER BY id
	`
	rows, err := r.q.QueryContext(ctx, query, carpoolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		m := &domain.Message{}
		if err := rows.Scan(&m.ID, &m.CarpoolID, &m.UserID, &m.Content, &m.SentTime, &m.Removed); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// MarkRemoved hides a message. Removing a removed message is not found.
func (r *MessagesRepository) MarkRemoved(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, `UPDATE messages SET removed = TRUE WHERE id = $1 AND NOT removed`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrMessageNotFound
	}
	return nil
}

// DeleteByCarpool deletes every message of the carpool.
func (r *MessagesRepository) DeleteByCarpool(ctx context.Context, carpoolID int64) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM messages WHERE carpool_id = $1`, carpoolID)
	return err
}
