package usecase

import (
	"context"
	"errors"
	"fmt"

	user "github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/user/domain"
	repository "github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/user/persistence/repository/port"
)

// ErrUnauthenticated covers a missing, malformed, or unresolvable credential.
var ErrUnauthenticated = fmt.Errorf("user: unauthenticated")

// SubjectVerifier validates a bearer token and yields its subject.
type SubjectVerifier interface {
	Subject(tokenString string) (string, error)
}

// ResolveIdentityUseCase turns a presented bearer credential into a user row.
// It is the whole of the identity collaborator as consumed by the realtime core.
type ResolveIdentityUseCase struct {
	Verifier SubjectVerifier
	Users    repository.UserRepository
}

func NewResolveIdentityUseCase(verifier SubjectVerifier, users repository.UserRepository) *ResolveIdentityUseCase {
	return &ResolveIdentityUseCase{Verifier: verifier, Users: users}
}

func (uc *ResolveIdentityUseCase) Resolve(ctx context.Context, credential string) (*user.User, error) {
	if credential == "" {
		return nil, ErrUnauthenticated
	}
	username, err := uc.Verifier.Subject(credential)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	u, err := uc.Users.ByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrUnauthenticated
	}
	return u, nil
}
