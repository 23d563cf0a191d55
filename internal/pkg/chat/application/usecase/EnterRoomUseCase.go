package usecase

import (
	"context"
	"fmt"

	repository "github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/chat/persistence/repository/port"
)

// EnterRoomInput identifies the membership to upsert.
type EnterRoomInput struct {
	RoomID int64
	UserID int64
}

// EnterRoomUseCase records room membership on session admission. Re-join is an
// idempotent no-op; the caller only announces the user when the membership is new.
type EnterRoomUseCase struct {
	Members repository.MemberRepository
}

func NewEnterRoomUseCase(members repository.MemberRepository) *EnterRoomUseCase {
	return &EnterRoomUseCase{Members: members}
}

// Execute returns true when a first-time membership row was created.
func (uc *EnterRoomUseCase) Execute(ctx context.Context, in EnterRoomInput) (bool, error) {
	if in.RoomID == 0 || in.UserID == 0 {
		return false, fmt.Errorf("room_id and user_id are required")
	}
	outcome, err := uc.Members.CreateIfAbsent(ctx, in.RoomID, in.UserID)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return outcome == repository.Created, nil
}
