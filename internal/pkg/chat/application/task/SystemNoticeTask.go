package task

import (
	"context"
	"encoding/json"
	"time"

	qport "github.com/PivnoyFei/task-for-mango-fzco/internal/infrastructure/queue/port"
	"github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/chat/application/usecase"
	repoAdapter "github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/chat/persistence/repository/adapter"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SystemNoticeTaskType is the queue task name for persisting join/leave notices.
// The session handler broadcasts the notice inline and defers its storage here so
// the websocket path never waits on a second database write.
const SystemNoticeTaskType = "chat:system_notice"

// SystemNoticeTaskPayload is the JSON payload transported via the queue. Key is
// minted at enqueue time so worker retries reuse the same idempotency token.
type SystemNoticeTaskPayload struct {
	RoomID  int64  `json:"roomId"`
	UserID  int64  `json:"userId"`
	Key     string `json:"key"`
	Content string `json:"content"`
}

// EnqueueSystemNotice schedules the notice for persistence. Best effort: a queue
// outage loses the stored copy of the notice, never the broadcast.
func EnqueueSystemNotice(ctx context.Context, q qport.Client, p SystemNoticeTaskPayload) error {
	if p.Key == "" {
		p.Key = uuid.NewString()
	}
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = q.Enqueue(ctx, qport.Task{Type: SystemNoticeTaskType, Payload: b}, qport.EnqueueOption{Queue: "chat", MaxRetry: 5})
	return err
}

// RegisterSystemNoticeTask binds the task handler to the provided server.
// Persistence goes through the message store's idempotent create; the enqueue-time
// key guarantees a retried task never stores the notice twice.
func RegisterSystemNoticeTask(srv qport.Server, pool *pgxpool.Pool) {
	uc := usecase.NewPostMessageUseCase(repoAdapter.NewPgMessageRepository(pool))

	srv.Register(SystemNoticeTaskType, func(ctx context.Context, t qport.Task) error {
		var p SystemNoticeTaskPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			// malformed payload: do not retry indefinitely
			return err
		}

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		_, _, err := uc.Execute(ctx, usecase.PostMessageInput{
			RoomID:  p.RoomID,
			UserID:  p.UserID,
			Key:     p.Key,
			Content: p.Content,
		})
		return err
	})
}
