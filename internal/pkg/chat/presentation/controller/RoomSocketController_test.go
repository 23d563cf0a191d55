package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PivnoyFei/task-for-mango-fzco/internal/infrastructure/realtime"
	chat "github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/chat/domain"
	repository "github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/chat/persistence/repository/port"
	user "github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/user/domain"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// memStore backs all three chat repositories in memory for socket tests.
type memStore struct {
	mu       sync.Mutex
	rooms    map[string]*chat.Room
	members  map[[2]int64]bool
	messages map[string]chat.Message
	order    []string
}

func newMemStore() *memStore {
	return &memStore{
		rooms:    make(map[string]*chat.Room),
		members:  make(map[[2]int64]bool),
		messages: make(map[string]chat.Message),
	}
}

func (s *memStore) Create(ctx context.Context, r chat.Room) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[r.Name]; ok {
		return 0, repository.ErrDuplicate
	}
	r.ID = int64(len(s.rooms) + 1)
	s.rooms[r.Name] = &r
	return r.ID, nil
}

func (s *memStore) ByName(ctx context.Context, name string) (*chat.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[name]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *memStore) All(ctx context.Context, page, limit int, onlyActive bool) ([]chat.Room, error) {
	return nil, nil
}

func (s *memStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, name)
	return nil
}

func (s *memStore) SetRoomActive(ctx context.Context, roomID int64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rooms {
		if r.ID == roomID {
			r.IsActive = active
		}
	}
	return nil
}

func (s *memStore) DeactivateAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rooms {
		r.IsActive = false
	}
	return nil
}

func (s *memStore) CreateIfAbsent(ctx context.Context, roomID, userID int64) (repository.CreateOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := [2]int64{roomID, userID}
	if s.members[k] {
		return repository.AlreadyExists, nil
	}
	s.members[k] = true
	return repository.Created, nil
}

func (s *memStore) Exists(ctx context.Context, roomID, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.members[[2]int64{roomID, userID}], nil
}

func (s *memStore) Remove(ctx context.Context, roomID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members, [2]int64{roomID, userID})
	return nil
}

func (s *memStore) ListByRoom(ctx context.Context, roomID int64, page, limit int) ([]chat.Member, error) {
	return nil, nil
}

// messageRepo gives the message log its own method set so the two
// CreateIfAbsent signatures can coexist on one store.
type messageRepo struct{ s *memStore }

func (m messageRepo) CreateIfAbsent(ctx context.Context, msg chat.Message) (repository.CreateOutcome, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.messages[msg.Key]; ok {
		return repository.AlreadyExists, nil
	}
	m.s.messages[msg.Key] = msg
	m.s.order = append(m.s.order, msg.Key)
	return repository.Created, nil
}

func (m messageRepo) PageByRoom(ctx context.Context, roomID int64, page, limit int) ([]chat.Message, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var all []chat.Message
	for i := len(m.s.order) - 1; i >= 0; i-- {
		msg := m.s.messages[m.s.order[i]]
		if msg.RoomID == roomID {
			all = append(all, msg)
		}
	}
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (s *memStore) messageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

func (s *memStore) isMember(roomID, userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.members[[2]int64{roomID, userID}]
}

// tokenIdentity resolves tokens from a fixed table.
type tokenIdentity struct {
	users map[string]*user.User
}

var errUnknownToken = errors.New("unknown token")

func (f tokenIdentity) Resolve(ctx context.Context, credential string) (*user.User, error) {
	u, ok := f.users[credential]
	if !ok {
		return nil, errUnknownToken
	}
	return u, nil
}

type socketFixture struct {
	store  *memStore
	server *httptest.Server
}

func newSocketFixture(t *testing.T) *socketFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newMemStore()
	store.rooms["lobby"] = &chat.Room{ID: 1, Name: "lobby"}
	store.rooms["vault"] = &chat.Room{ID: 2, Name: "vault", Privat: true}

	registry := realtime.NewRegistry(store)
	ctl := NewRoomSocketController(RoomSocketDeps{
		Registry: registry,
		Identity: tokenIdentity{users: map[string]*user.User{
			"alice-token": {ID: 10, Username: "alice", IsActive: true},
			"bob-token":   {ID: 11, Username: "bob", IsActive: true},
		}},
		Rooms:    store,
		Members:  store,
		Messages: messageRepo{s: store},
	})

	r := gin.New()
	r.GET("/chat/ws/:roomName", ctl.Handle())
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	t.Cleanup(func() { registry.Close(context.Background()) })

	return &socketFixture{store: store, server: srv}
}

func (f *socketFixture) dial(t *testing.T, room, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/chat/ws/" + room + "?token=" + token
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func readFrame(t *testing.T, ws *websocket.Conn) map[string]any {
	t.Helper()
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	var frame map[string]any
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("decode frame %q: %v", data, err)
	}
	return frame
}

func sendJSON(t *testing.T, ws *websocket.Conn, v any) {
	t.Helper()
	if err := ws.WriteJSON(v); err != nil {
		t.Fatalf("write frame: %v", err)
	}
}

func expectSilentClose(t *testing.T, ws *websocket.Conn) {
	t.Helper()
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err == nil {
		t.Fatalf("expected close, got frame %q", data)
	}
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("close error = %v, want policy violation", err)
	}
}

func TestSessionRejectsBadCredentialSilently(t *testing.T) {
	f := newSocketFixture(t)
	ws := f.dial(t, "lobby", "forged-token")
	expectSilentClose(t, ws)
}

func TestSessionRejectsUnknownRoomSilently(t *testing.T) {
	f := newSocketFixture(t)
	ws := f.dial(t, "nowhere", "alice-token")
	expectSilentClose(t, ws)
}

func TestSessionRejectsPrivateRoomOutsiderSilently(t *testing.T) {
	f := newSocketFixture(t)
	ws := f.dial(t, "vault", "alice-token")
	expectSilentClose(t, ws)
}

func TestSessionAdmitsPrivateRoomMember(t *testing.T) {
	f := newSocketFixture(t)
	f.store.members[[2]int64{2, 10}] = true

	ws := f.dial(t, "vault", "alice-token")
	sendJSON(t, ws, map[string]any{"content": "inside"})
	frame := readFrame(t, ws)
	if frame["content"] != "inside" {
		t.Fatalf("frame = %v, want the posted content echoed", frame)
	}
}

func TestFirstJoinBroadcastsEnterNotice(t *testing.T) {
	f := newSocketFixture(t)
	ws := f.dial(t, "lobby", "alice-token")

	frame := readFrame(t, ws)
	if frame["content"] != "alice has entered the chat" {
		t.Fatalf("frame = %v, want the enter notice", frame)
	}
	if !f.store.isMember(1, 10) {
		t.Fatal("membership row was not created")
	}

	// Reconnecting is not a first join and must stay silent.
	sendJSON(t, ws, map[string]any{"type": "disconnect"})
	ws2 := f.dial(t, "lobby", "alice-token")
	sendJSON(t, ws2, map[string]any{"content": "back"})
	frame = readFrame(t, ws2)
	if frame["content"] != "back" {
		t.Fatalf("frame = %v, want the posted content with no second enter notice", frame)
	}
}

func TestContentFrameStoresAndAcksWithMintedKey(t *testing.T) {
	f := newSocketFixture(t)
	ws := f.dial(t, "lobby", "alice-token")
	readFrame(t, ws) // enter notice

	sendJSON(t, ws, map[string]any{"content": "hello room"})
	frame := readFrame(t, ws)

	if frame["accepted"] != true || frame["content"] != "hello room" {
		t.Fatalf("frame = %v, want an accepted ack", frame)
	}
	key, _ := frame["key"].(string)
	if _, err := uuid.Parse(key); err != nil {
		t.Fatalf("ack key %q is not a uuid: %v", key, err)
	}
	if f.store.messageCount() != 1 {
		t.Fatalf("stored messages = %d, want 1", f.store.messageCount())
	}
}

func TestDuplicateKeyIsDroppedWithoutAck(t *testing.T) {
	f := newSocketFixture(t)
	ws := f.dial(t, "lobby", "alice-token")
	readFrame(t, ws) // enter notice

	key := uuid.NewString()
	sendJSON(t, ws, map[string]any{"key": key, "content": "first"})
	frame := readFrame(t, ws)
	if frame["key"] != key {
		t.Fatalf("ack key = %v, want %q", frame["key"], key)
	}

	// Replay, then a distinct message: the next frame must be the distinct
	// message's ack, proving the replay produced nothing.
	sendJSON(t, ws, map[string]any{"key": key, "content": "first"})
	sendJSON(t, ws, map[string]any{"content": "second"})
	frame = readFrame(t, ws)
	if frame["content"] != "second" {
		t.Fatalf("frame = %v, want the second message's ack", frame)
	}
	if f.store.messageCount() != 2 {
		t.Fatalf("stored messages = %d, want 2", f.store.messageCount())
	}
}

func TestBroadcastReachesEveryRoomMember(t *testing.T) {
	f := newSocketFixture(t)
	alice := f.dial(t, "lobby", "alice-token")
	readFrame(t, alice) // alice's enter notice

	bob := f.dial(t, "lobby", "bob-token")
	readFrame(t, bob)   // bob's enter notice
	readFrame(t, alice) // alice also sees bob enter

	sendJSON(t, alice, map[string]any{"content": "hi bob"})
	for _, ws := range []*websocket.Conn{alice, bob} {
		frame := readFrame(t, ws)
		if frame["content"] != "hi bob" {
			t.Fatalf("frame = %v, want the broadcast ack", frame)
		}
	}
}

func TestPageFrameUnicastsHistory(t *testing.T) {
	f := newSocketFixture(t)
	alice := f.dial(t, "lobby", "alice-token")
	readFrame(t, alice)
	bob := f.dial(t, "lobby", "bob-token")
	readFrame(t, bob)
	readFrame(t, alice)

	sendJSON(t, alice, map[string]any{"content": "old news"})
	readFrame(t, alice)
	readFrame(t, bob)

	sendJSON(t, bob, map[string]any{"page": 1})
	frame := readFrame(t, bob)
	msgs, ok := frame["messages"].([]any)
	if !ok || len(msgs) != 1 {
		t.Fatalf("frame = %v, want one history message", frame)
	}

	// History is personal: alice gets nothing from bob's page request.
	sendJSON(t, alice, map[string]any{"content": "still here"})
	frame = readFrame(t, alice)
	if frame["content"] != "still here" {
		t.Fatalf("frame = %v, want alice's own ack, not bob's history", frame)
	}
}

func TestInvalidPageIsIgnored(t *testing.T) {
	f := newSocketFixture(t)
	ws := f.dial(t, "lobby", "alice-token")
	readFrame(t, ws)

	sendJSON(t, ws, map[string]any{"page": 0})
	sendJSON(t, ws, map[string]any{"content": "alive"})
	frame := readFrame(t, ws)
	if frame["content"] != "alive" {
		t.Fatalf("frame = %v, want the session to survive the bad page", frame)
	}
}

func TestMalformedFrameIsIgnored(t *testing.T) {
	f := newSocketFixture(t)
	ws := f.dial(t, "lobby", "alice-token")
	readFrame(t, ws)

	if err := ws.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	sendJSON(t, ws, map[string]any{"content": "alive"})
	frame := readFrame(t, ws)
	if frame["content"] != "alive" {
		t.Fatalf("frame = %v, want the session to survive the malformed frame", frame)
	}
}

func TestDeleteTagRemovesMembershipAndAnnounces(t *testing.T) {
	f := newSocketFixture(t)
	alice := f.dial(t, "lobby", "alice-token")
	readFrame(t, alice)
	bob := f.dial(t, "lobby", "bob-token")
	readFrame(t, bob)
	readFrame(t, alice)

	sendJSON(t, bob, map[string]any{"type": "delete"})
	frame := readFrame(t, alice)
	if frame["content"] != "bob has left the chat" {
		t.Fatalf("frame = %v, want the leave notice", frame)
	}

	deadline := time.Now().Add(2 * time.Second)
	for f.store.isMember(1, 11) {
		if time.Now().After(deadline) {
			t.Fatal("membership row survived the delete tag")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestDisconnectKeepsMembership(t *testing.T) {
	f := newSocketFixture(t)
	ws := f.dial(t, "lobby", "alice-token")
	readFrame(t, ws)

	sendJSON(t, ws, map[string]any{"type": "disconnect"})

	deadline := time.Now().Add(2 * time.Second)
	for {
		_ = ws.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("server never closed the session")
		}
	}
	if !f.store.isMember(1, 10) {
		t.Fatal("plain disconnect must not remove the membership row")
	}
}

func TestBearerCredentialSources(t *testing.T) {
	f := newSocketFixture(t)

	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/chat/ws/lobby"
	header := map[string][]string{"Authorization": {"Bearer alice-token"}}
	ws, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial with header: %v", err)
	}
	defer ws.Close()

	frame := readFrame(t, ws)
	if frame["content"] != "alice has entered the chat" {
		t.Fatalf("frame = %v, want admission via the Authorization header", frame)
	}
}
