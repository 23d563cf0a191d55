package repository

import (
	"context"
	"errors"

	user "github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/user/domain"
)

// ErrNotFound signals an unknown username.
var ErrNotFound = errors.New("user repository: not found")

// UserRepository exposes the single lookup the realtime core needs from the
// identity collaborator's storage.
type UserRepository interface {
	ByUsername(ctx context.Context, username string) (*user.User, error)
}
