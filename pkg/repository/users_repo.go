package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/wheelshare/wheelshare-api/pkg/domain"
)

// UsersRepository handles user persistence.
type UsersRepository struct {
	q Querier
}

// NewUsersRepository creates a new users repository.
func NewUsersRepository(q Querier) *UsersRepository {
	return &UsersRepository{q: q}
}

// Create creates a new user and sets its ID.
func (r *UsersRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (name, email, bio)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	return r.q.QueryRowContext(ctx, query, user.Name, user.Email, user.Bio).Scan(&user.ID)
}

// GetByID retrieves a user by ID.
func (r *UsersRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT id, name, email, bio FROM users WHERE id = $1`
	user := &domain.User{}
	err := r.q.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.Name, &user.Email, &user.Bio)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetPreviews returns id and name for each existing user in ids. Unknown
// ids are skipped.
func (r *UsersRepository) GetPreviews(ctx context.Context, ids []int64) ([]domain.UserPreview, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.q.QueryContext(ctx, `SELECT id, name FROM users WHERE id = ANY($1) ORDER BY id`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var previews []domain.UserPreview
	for rows.Next() {
		var p domain.UserPreview
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		previews = append(previews, p)
	}
	return previews, rows.Err()
}
