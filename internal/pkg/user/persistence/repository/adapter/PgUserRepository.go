package adapter

import (
	"context"
	"errors"

	user "github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/user/domain"
	repository "github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/user/persistence/repository/port"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

var _ repository.UserRepository = (*PgUserRepository)(nil)

func (r *PgUserRepository) ByUsername(ctx context.Context, username string) (*user.User, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgUserRepository: nil pool")
	}
	var u user.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, username, firstname, lastname, created_at, is_active
		FROM users
		WHERE username = $1
	`, username).Scan(&u.ID, &u.Username, &u.Firstname, &u.Lastname, &u.CreatedAt, &u.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
