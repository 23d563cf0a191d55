package usecase

import (
	"context"
	"fmt"

	chat "github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/chat/domain"
	repository "github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/chat/persistence/repository/port"
)

// PostMessageInput carries an inbound content frame. Key may be empty or invalid;
// the domain mints a fresh one in that case.
type PostMessageInput struct {
	RoomID  int64
	UserID  int64
	Key     string
	Content string
}

// PostMessageUseCase persists a message at most once per idempotency key.
type PostMessageUseCase struct {
	Messages repository.MessageRepository
}

func NewPostMessageUseCase(messages repository.MessageRepository) *PostMessageUseCase {
	return &PostMessageUseCase{Messages: messages}
}

// Execute returns the shaped message and whether a new row was stored. A
// duplicate key reports stored=false with no error: the message was already
// applied and must not be re-broadcast.
func (uc *PostMessageUseCase) Execute(ctx context.Context, in PostMessageInput) (*chat.Message, bool, error) {
	msg, err := chat.NewMessage(chat.Message{
		Key:     in.Key,
		RoomID:  in.RoomID,
		UserID:  in.UserID,
		Content: in.Content,
	})
	if err != nil {
		return nil, false, err
	}

	outcome, err := uc.Messages.CreateIfAbsent(ctx, *msg)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return msg, outcome == repository.Created, nil
}
