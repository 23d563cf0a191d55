package chat

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidMessageOwner marks a message missing its room or sender identity.
var ErrInvalidMessageOwner = errors.New("chat: room_id and user_id are required")

// Message is an immutable log entry in a room, identified by a client-supplied
// idempotency key. Stored at most once per key despite retransmission.
type Message struct {
	Key       string    `db:"key"`
	RoomID    int64     `db:"room_id"`
	UserID    int64     `db:"user_id"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}

// NewMessage validates and shapes a message ready to persist.
//
// The content is normalized to trimmed text; an empty body is rejected. When the
// supplied key is absent or not a syntactically valid UUID, a fresh one is minted
// so every stored message carries a well-formed idempotency token.
func NewMessage(m Message) (*Message, error) {
	if m.RoomID == 0 || m.UserID == 0 {
		return nil, ErrInvalidMessageOwner
	}

	m.Content = strings.TrimSpace(m.Content)
	if m.Content == "" {
		return nil, ErrEmptyMessage
	}

	if _, err := uuid.Parse(m.Key); err != nil {
		m.Key = uuid.NewString()
	}

	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return &m, nil
}
