package usecase

import "fmt"

// ErrPersistence indicates an infrastructure/repository failure inside a use case
var ErrPersistence = fmt.Errorf("chat use case persistence error")

// Session authorization outcomes. All three are terminal for the session: the
// connection is closed without an error frame and the client must reconnect.
var (
	ErrUnauthenticated = fmt.Errorf("chat: unauthenticated")
	ErrRoomNotFound    = fmt.Errorf("chat: room not found")
	ErrForbidden       = fmt.Errorf("chat: not a member of a private room")
)

// ErrRoomExists indicates a room create hit an existing name.
var ErrRoomExists = fmt.Errorf("chat: room already exists")

// ErrInvalidPage indicates a history request with page < 1.
var ErrInvalidPage = fmt.Errorf("chat: page must be >= 1")
