package port

import (
	"context"
	"time"
)

// Task is a background job: a stable type name plus opaque payload bytes.
// Payload encoding belongs to the task package that owns the type.
type Task struct {
	Type    string
	Payload []byte
}

// Handler processes one Task. A non-nil error requests a retry per the adapter's
// policy, so handlers must be idempotent.
type Handler func(ctx context.Context, task Task) error

// EnqueueOption tunes a single enqueue. Zero values mean "unspecified"; adapters
// map the fields to the backend best-effort and ignore what they cannot express.
type EnqueueOption struct {
	Queue     string        // logical queue name
	ProcessIn time.Duration // delay before processing
	ProcessAt time.Time     // absolute schedule time, wins over ProcessIn
	MaxRetry  int
	UniqueTTL time.Duration // dedupe window, if the backend supports one
	Retention time.Duration // how long to keep result metadata
	Deadline  time.Time
}

// Client enqueues tasks for background processing.
type Client interface {
	Enqueue(ctx context.Context, t Task, opts ...EnqueueOption) (id string, err error)
	Close() error
}

// Server runs the worker side. Run blocks until the context is canceled or Stop
// is called.
type Server interface {
	Register(taskType string, h Handler)
	Run(ctx context.Context) error
	Stop(ctx context.Context) error
}
