package usecase

import (
	"context"
	"fmt"

	repository "github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/chat/persistence/repository/port"
)

// LeaveRoomInput identifies the membership to remove.
type LeaveRoomInput struct {
	RoomID int64
	UserID int64
}

// LeaveRoomUseCase removes a membership row when a session ends with an explicit
// delete tag. A plain disconnect keeps the membership.
type LeaveRoomUseCase struct {
	Members repository.MemberRepository
}

func NewLeaveRoomUseCase(members repository.MemberRepository) *LeaveRoomUseCase {
	return &LeaveRoomUseCase{Members: members}
}

func (uc *LeaveRoomUseCase) Execute(ctx context.Context, in LeaveRoomInput) error {
	if in.RoomID == 0 || in.UserID == 0 {
		return fmt.Errorf("room_id and user_id are required")
	}
	if err := uc.Members.Remove(ctx, in.RoomID, in.UserID); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}
