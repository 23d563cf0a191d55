package adapter

import (
	"context"
	"errors"

	chat "github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/chat/domain"
	repository "github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/chat/persistence/repository/port"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PgMemberRepository struct {
	pool *pgxpool.Pool
}

func NewPgMemberRepository(pool *pgxpool.Pool) *PgMemberRepository {
	return &PgMemberRepository{pool: pool}
}

var _ repository.MemberRepository = (*PgMemberRepository)(nil)

// CreateIfAbsent inserts the membership row, relying on the (room_id, user_id)
// unique constraint to detect a re-join. Re-join is a no-op success.
func (r *PgMemberRepository) CreateIfAbsent(ctx context.Context, roomID, userID int64) (repository.CreateOutcome, error) {
	if r == nil || r.pool == nil {
		return repository.AlreadyExists, errors.New("PgMemberRepository: nil pool")
	}
	_, err := r.pool.Exec(ctx,
		"INSERT INTO members (room_id, user_id) VALUES ($1, $2)",
		roomID, userID,
	)
	if isUniqueViolation(err) {
		return repository.AlreadyExists, nil
	}
	if err != nil {
		return repository.AlreadyExists, err
	}
	return repository.Created, nil
}

func (r *PgMemberRepository) Exists(ctx context.Context, roomID, userID int64) (bool, error) {
	if r == nil || r.pool == nil {
		return false, errors.New("PgMemberRepository: nil pool")
	}
	var exists bool
	err := r.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM members WHERE room_id = $1 AND user_id = $2)",
		roomID, userID,
	).Scan(&exists)
	return exists, err
}

func (r *PgMemberRepository) Remove(ctx context.Context, roomID, userID int64) error {
	if r == nil || r.pool == nil {
		return errors.New("PgMemberRepository: nil pool")
	}
	_, err := r.pool.Exec(ctx,
		"DELETE FROM members WHERE room_id = $1 AND user_id = $2",
		roomID, userID,
	)
	return err
}

func (r *PgMemberRepository) ListByRoom(ctx context.Context, roomID int64, page, limit int) ([]chat.Member, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgMemberRepository: nil pool")
	}
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 15
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, room_id, user_id, created_at
		FROM members
		WHERE room_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, roomID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []chat.Member
	for rows.Next() {
		var m chat.Member
		if err := rows.Scan(&m.ID, &m.RoomID, &m.UserID, &m.CreatedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
