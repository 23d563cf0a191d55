package repository

import (
	"context"
	"errors"

	chat "github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/chat/domain"
)

// ErrNotFound signals a missing row in a typed way so callers never import the
// driver's sentinel.
var ErrNotFound = errors.New("repository: not found")

// ErrDuplicate signals a unique-constraint hit on a create that is not modeled as
// a CreateIfAbsent outcome (e.g. room names).
var ErrDuplicate = errors.New("repository: duplicate")

// CreateOutcome reports whether an idempotent create inserted a new row or hit an
// existing one. Adapters derive it from the unique-violation the storage raises on
// a duplicate insert; callers branch on the value instead of unwinding an error.
type CreateOutcome int

const (
	Created CreateOutcome = iota
	AlreadyExists
)

// RoomRepository is the authoritative source of room existence, privacy, and
// activity state.
type RoomRepository interface {
	Create(ctx context.Context, r chat.Room) (int64, error)
	ByName(ctx context.Context, name string) (*chat.Room, error)
	All(ctx context.Context, page, limit int, onlyActive bool) ([]chat.Room, error)
	Delete(ctx context.Context, name string) error

	// SetRoomActive persists the derived activity flag; the realtime registry is
	// the only caller during normal operation.
	SetRoomActive(ctx context.Context, roomID int64, active bool) error

	// DeactivateAll resets every room to inactive. A crash loses all presence, so
	// process start must restore the "active iff connected" invariant this way.
	DeactivateAll(ctx context.Context) error
}

// MemberRepository is the authoritative source of room membership.
type MemberRepository interface {
	CreateIfAbsent(ctx context.Context, roomID, userID int64) (CreateOutcome, error)
	Exists(ctx context.Context, roomID, userID int64) (bool, error)
	Remove(ctx context.Context, roomID, userID int64) error
	ListByRoom(ctx context.Context, roomID int64, page, limit int) ([]chat.Member, error)
}

// MessageRepository is the append-only message log, queryable per room with
// descending creation-time pagination.
type MessageRepository interface {
	CreateIfAbsent(ctx context.Context, m chat.Message) (CreateOutcome, error)
	PageByRoom(ctx context.Context, roomID int64, page, limit int) ([]chat.Message, error)
}
