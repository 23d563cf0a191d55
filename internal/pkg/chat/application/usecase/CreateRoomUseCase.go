package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/chat/domain"
	repository "github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/chat/persistence/repository/port"
)

// CreateRoomInput carries the room attributes and the creating identity.
type CreateRoomInput struct {
	Name      string
	Privat    bool
	CreatorID int64
}

// CreateRoomUseCase persists a new room and registers its creator as the first
// member. Name uniqueness is enforced by the persistence layer.
type CreateRoomUseCase struct {
	Rooms   repository.RoomRepository
	Members repository.MemberRepository
}

func NewCreateRoomUseCase(rooms repository.RoomRepository, members repository.MemberRepository) *CreateRoomUseCase {
	return &CreateRoomUseCase{Rooms: rooms, Members: members}
}

func (uc *CreateRoomUseCase) Execute(ctx context.Context, in CreateRoomInput) (*chat.Room, error) {
	if in.CreatorID == 0 {
		return nil, fmt.Errorf("creator id is required")
	}
	room, err := chat.NewRoom(in.Name, in.Privat)
	if err != nil {
		return nil, err
	}

	id, err := uc.Rooms.Create(ctx, *room)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrRoomExists
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	room.ID = id

	if _, err := uc.Members.CreateIfAbsent(ctx, id, in.CreatorID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return room, nil
}
