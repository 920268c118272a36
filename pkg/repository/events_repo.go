package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/wheelshare/wheelshare-api/pkg/domain"
)

// EventsRepository handles event and signup persistence.
type EventsRepository struct {
	q Querier
}

// NewEventsRepository creates a new events repository.
func NewEventsRepository(q Querier) *EventsRepository {
	return &EventsRepository{q: q}
}

// Create creates an event and sets its ID.
func (r *EventsRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (name, group_id, creator_id, start_time, duration_minutes, end_time, days_of_week, cancelled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	return r.q.QueryRowContext(ctx, query,
		e.Name, e.GroupID, e.CreatorID, e.StartTime, int64(e.Duration/time.Minute),
		e.EndTime, e.DaysOfWeek, e.Cancelled,
	).Scan(&e.ID)
}

// GetByID retrieves an event by ID.
func (r *EventsRepository) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	query := `
		SELECT id, name, group_id, creator_id, start_time, duration_minutes, end_time, days_of_week, cancelled
		FROM events
		WHERE id = $1
	`
	e := &domain.Event{}
	var minutes int64
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.Name, &e.GroupID, &e.CreatorID, &e.StartTime, &minutes,
		&e.EndTime, &e.DaysOfWeek, &e.Cancelled,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	e.Duration = time.Duration(minutes) * time.Minute
	return e, nil
}

// AddSignup records that a user plans to attend the event.
func (r *EventsRepository) AddSignup(ctx context.Context, s *domain.EventSignup) error {
	query := `
		INSERT INTO event_signups (event_id, user_id, can_drive, note)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id, user_id) DO UPDATE SET can_drive = EXCLUDED.can_drive, note = EXCLUDED.note
	`
	_, err := r.q.ExecContext(ctx, query, s.EventID, s.UserID, s.CanDrive, s.Note)
	return err
}

// ListSignupUsers returns the users signed up for the event.
func (r *EventsRepository) ListSignupUsers(ctx context.Context, eventID int64) ([]domain.UserPreview, error) {
	query := `
		SELECT u.id, u.name
		FROM event_signups s
		JOIN users u ON u.id = s.user_id
		WHERE s.event_id = $1
		ORDER BY u.id
	`
	rows, err := r.q.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.UserPreview
	for rows.Next() {
		var u domain.UserPreview
		if err := rows.Scan(&u.ID, &u.Name); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
