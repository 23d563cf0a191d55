package controller

import "time"

// inboundFrame is the permissive wire shape of a client frame. Any subset of
// fields may be present; fields and frames that do not decode are ignored
// without closing the connection.
type inboundFrame struct {
	Type    string  `json:"type,omitempty"`
	Page    *int    `json:"page,omitempty"`
	Key     *string `json:"key,omitempty"`
	Content *string `json:"content,omitempty"`
}

// systemFrame announces a user entering or leaving the room.
type systemFrame struct {
	RoomID  int64  `json:"room_id"`
	UserID  int64  `json:"user_id"`
	Content string `json:"content"`
}

// ackFrame confirms a stored message to the whole room, carrying the key the
// sender can correlate retransmissions against.
type ackFrame struct {
	Accepted bool   `json:"accepted"`
	Key      string `json:"key"`
	RoomID   int64  `json:"room_id"`
	UserID   int64  `json:"user_id"`
	Content  string `json:"content"`
}

// historyFrame is the personal reply to a pagination request.
type historyFrame struct {
	RoomID   int64            `json:"room_id"`
	UserID   int64            `json:"user_id"`
	Messages []messagePayload `json:"messages"`
}

type messagePayload struct {
	Key       string    `json:"key"`
	RoomID    int64     `json:"room_id"`
	UserID    int64     `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
