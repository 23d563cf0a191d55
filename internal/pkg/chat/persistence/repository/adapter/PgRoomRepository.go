package adapter

import (
	"context"
	"errors"

	chat "github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/chat/domain"
	repository "github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/chat/persistence/repository/port"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// isUniqueViolation reports whether err is a Postgres unique-constraint violation.
// Idempotent creates rely on this instead of a check-then-insert race.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type PgRoomRepository struct {
	pool *pgxpool.Pool
}

func NewPgRoomRepository(pool *pgxpool.Pool) *PgRoomRepository {
	return &PgRoomRepository{pool: pool}
}

var _ repository.RoomRepository = (*PgRoomRepository)(nil)

func (r *PgRoomRepository) Create(ctx context.Context, room chat.Room) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New("PgRoomRepository: nil pool")
	}
	var id int64
	err := r.pool.QueryRow(ctx,
		"INSERT INTO rooms (name, privat, is_active, created_at) VALUES ($1, $2, false, $3) RETURNING id",
		room.Name, room.Privat, room.CreatedAt,
	).Scan(&id)
	if isUniqueViolation(err) {
		return 0, repository.ErrDuplicate
	}
	return id, err
}

func (r *PgRoomRepository) ByName(ctx context.Context, name string) (*chat.Room, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgRoomRepository: nil pool")
	}
	var room chat.Room
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, privat, is_active, created_at
		FROM rooms
		WHERE name = $1
	`, name).Scan(&room.ID, &room.Name, &room.Privat, &room.IsActive, &room.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *PgRoomRepository) All(ctx context.Context, page, limit int, onlyActive bool) ([]chat.Room, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgRoomRepository: nil pool")
	}
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 15
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, privat, is_active, created_at
		FROM rooms
		WHERE (NOT $3::bool) OR is_active
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, (page-1)*limit, onlyActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []chat.Room
	for rows.Next() {
		var room chat.Room
		if err := rows.Scan(&room.ID, &room.Name, &room.Privat, &room.IsActive, &room.CreatedAt); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (r *PgRoomRepository) Delete(ctx context.Context, name string) error {
	if r == nil || r.pool == nil {
		return errors.New("PgRoomRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, "DELETE FROM rooms WHERE name = $1", name)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PgRoomRepository) SetRoomActive(ctx context.Context, roomID int64, active bool) error {
	if r == nil || r.pool == nil {
		return errors.New("PgRoomRepository: nil pool")
	}
	_, err := r.pool.Exec(ctx, "UPDATE rooms SET is_active = $2 WHERE id = $1", roomID, active)
	return err
}

func (r *PgRoomRepository) DeactivateAll(ctx context.Context) error {
	if r == nil || r.pool == nil {
		return errors.New("PgRoomRepository: nil pool")
	}
	_, err := r.pool.Exec(ctx, "UPDATE rooms SET is_active = false WHERE is_active")
	return err
}
