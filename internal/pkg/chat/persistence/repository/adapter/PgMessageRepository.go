package adapter

import (
	"context"
	"errors"

	chat "github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/chat/domain"
	repository "github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/chat/persistence/repository/port"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PgMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

var _ repository.MessageRepository = (*PgMessageRepository)(nil)

// CreateIfAbsent appends the message, relying on the primary key on key to catch a
// retransmitted idempotency token. A duplicate never produces a second row.
func (r *PgMessageRepository) CreateIfAbsent(ctx context.Context, m chat.Message) (repository.CreateOutcome, error) {
	if r == nil || r.pool == nil {
		return repository.AlreadyExists, errors.New("PgMessageRepository: nil pool")
	}
	_, err := r.pool.Exec(ctx,
		"INSERT INTO messages (key, room_id, user_id, content, created_at) VALUES ($1, $2, $3, $4, $5)",
		m.Key, m.RoomID, m.UserID, m.Content, m.CreatedAt,
	)
	if isUniqueViolation(err) {
		return repository.AlreadyExists, nil
	}
	if err != nil {
		return repository.AlreadyExists, err
	}
	return repository.Created, nil
}

func (r *PgMessageRepository) PageByRoom(ctx context.Context, roomID int64, page, limit int) ([]chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgMessageRepository: nil pool")
	}
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 15
	}
	rows, err := r.pool.Query(ctx, `
		SELECT key, room_id, user_id, content, created_at
		FROM messages
		WHERE room_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, roomID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []chat.Message
	for rows.Next() {
		var m chat.Message
		if err := rows.Scan(&m.Key, &m.RoomID, &m.UserID, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
