package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/chat/domain"
	repository "github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/chat/persistence/repository/port"
)

// AuthorizeSessionInput carries the resolved identity and the target room name.
type AuthorizeSessionInput struct {
	RoomName string
	UserID   int64
}

// AuthorizeSessionUseCase gates entry to a room session: the room must exist, and
// a private room additionally requires prior membership. A connection is never
// admitted to a room it has not been authorized for.
type AuthorizeSessionUseCase struct {
	Rooms   repository.RoomRepository
	Members repository.MemberRepository
}

func NewAuthorizeSessionUseCase(rooms repository.RoomRepository, members repository.MemberRepository) *AuthorizeSessionUseCase {
	return &AuthorizeSessionUseCase{Rooms: rooms, Members: members}
}

func (uc *AuthorizeSessionUseCase) Execute(ctx context.Context, in AuthorizeSessionInput) (*chat.Room, error) {
	if in.RoomName == "" || in.UserID == 0 {
		return nil, ErrRoomNotFound
	}

	room, err := uc.Rooms.ByName(ctx, in.RoomName)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if room.Privat {
		ok, err := uc.Members.Exists(ctx, room.ID, in.UserID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		if !ok {
			return nil, ErrForbidden
		}
	}
	return room, nil
}
