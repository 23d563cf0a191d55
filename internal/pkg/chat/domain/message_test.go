package chat

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestNewMessageMintsKeyWhenAbsent(t *testing.T) {
	m, err := NewMessage(Message{RoomID: 1, UserID: 2, Content: "hi"})
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	if _, err := uuid.Parse(m.Key); err != nil {
		t.Fatalf("minted key %q is not a uuid: %v", m.Key, err)
	}
	if m.CreatedAt.IsZero() {
		t.Fatal("CreatedAt was not defaulted")
	}
}

func TestNewMessageKeepsValidKey(t *testing.T) {
	key := uuid.NewString()
	m, err := NewMessage(Message{Key: key, RoomID: 1, UserID: 2, Content: "hi"})
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	if m.Key != key {
		t.Fatalf("key = %q, want the supplied %q", m.Key, key)
	}
}

func TestNewMessageReplacesMalformedKey(t *testing.T) {
	m, err := NewMessage(Message{Key: "not-a-uuid", RoomID: 1, UserID: 2, Content: "hi"})
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	if m.Key == "not-a-uuid" {
		t.Fatal("malformed key was kept")
	}
	if _, err := uuid.Parse(m.Key); err != nil {
		t.Fatalf("replacement key %q is not a uuid: %v", m.Key, err)
	}
}

func TestNewMessageTrimsAndRejectsEmptyContent(t *testing.T) {
	m, err := NewMessage(Message{RoomID: 1, UserID: 2, Content: "  padded  "})
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	if m.Content != "padded" {
		t.Fatalf("content = %q, want %q", m.Content, "padded")
	}

	if _, err := NewMessage(Message{RoomID: 1, UserID: 2, Content: "   "}); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("blank content error = %v, want ErrEmptyMessage", err)
	}
}

func TestNewMessageRequiresOwner(t *testing.T) {
	if _, err := NewMessage(Message{UserID: 2, Content: "hi"}); !errors.Is(err, ErrInvalidMessageOwner) {
		t.Fatalf("missing room error = %v, want ErrInvalidMessageOwner", err)
	}
	if _, err := NewMessage(Message{RoomID: 1, Content: "hi"}); !errors.Is(err, ErrInvalidMessageOwner) {
		t.Fatalf("missing user error = %v, want ErrInvalidMessageOwner", err)
	}
}

func TestNewRoomTrimsName(t *testing.T) {
	r, err := NewRoom("  lobby  ", true)
	if err != nil {
		t.Fatalf("NewRoom: %v", err)
	}
	if r.Name != "lobby" || !r.Privat {
		t.Fatalf("room = %+v, want trimmed private lobby", r)
	}
	if _, err := NewRoom("   ", false); !errors.Is(err, ErrEmptyRoomName) {
		t.Fatalf("blank name error = %v, want ErrEmptyRoomName", err)
	}
}
