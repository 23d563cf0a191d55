package chat

import (
	"errors"
	"strings"
	"time"
)

// Domain-level errors for room and message behaviors
var (
	ErrEmptyRoomName = errors.New("chat: room name is required")
	ErrEmptyMessage  = errors.New("chat: message content is empty")
)

// Room is a named channel, public or private. IsActive is derived state: true iff
// at least one socket is currently connected, maintained by the realtime registry.
type Room struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Privat    bool      `db:"privat"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
}

// NewRoom validates and shapes a room ready to persist.
func NewRoom(name string, privat bool) (*Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyRoomName
	}
	return &Room{Name: name, Privat: privat, CreatedAt: time.Now().UTC()}, nil
}
