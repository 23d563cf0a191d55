package usecase

import (
	"context"
	"fmt"

	chat "github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/chat/domain"
	repository "github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/chat/persistence/repository/port"
)

// History pagination bounds, mirroring the room listing defaults.
const (
	DefaultPageLimit = 15
	MaxPageLimit     = 50
)

// GetHistoryInput requests one page of a room's log, most recent first. The
// client supplies the page number each time; nothing advances server-side.
type GetHistoryInput struct {
	RoomID int64
	Page   int
	Limit  int
}

// GetHistoryUseCase fetches one descending page of messages for a room.
type GetHistoryUseCase struct {
	Messages repository.MessageRepository
}

func NewGetHistoryUseCase(messages repository.MessageRepository) *GetHistoryUseCase {
	return &GetHistoryUseCase{Messages: messages}
}

func (uc *GetHistoryUseCase) Execute(ctx context.Context, in GetHistoryInput) ([]chat.Message, error) {
	if in.Page < 1 {
		return nil, ErrInvalidPage
	}
	limit := in.Limit
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	msgs, err := uc.Messages.PageByRoom(ctx, in.RoomID, in.Page, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return msgs, nil
}
