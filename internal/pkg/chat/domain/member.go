package chat

import "time"

// Member captures a user's authorization to participate in a room.
// Unique per (RoomID, UserID); the uniqueness is enforced by the persistence layer.
type Member struct {
	ID        int64     `db:"id"`
	RoomID    int64     `db:"room_id"`
	UserID    int64     `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
}
