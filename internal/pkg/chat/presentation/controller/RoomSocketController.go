package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	qport "github.com/PivnoyFei/task-for-mango-fzco/internal/infrastructure/queue/port"
	"github.com/PivnoyFei/task-for-mango-fzco/internal/infrastructure/realtime"
	"github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/chat/application/task"
	"github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/chat/application/usecase"
	chat "github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/chat/domain"
	repository "github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/chat/persistence/repository/port"
	user "github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/user/domain"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// IdentityResolver is the identity collaborator as consumed by room sessions.
type IdentityResolver interface {
	Resolve(ctx context.Context, credential string) (*user.User, error)
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for now; plug a proper checker when one is needed.
		return true
	},
}

const defaultReadTimeout = 60 * time.Second

// RoomSocketDeps wires a RoomSocketController. Fanout defaults to the registry;
// Queue may be nil, in which case system notices are broadcast but not persisted.
type RoomSocketDeps struct {
	Registry  *realtime.Registry
	Fanout    realtime.Broadcaster
	Identity  IdentityResolver
	Rooms     repository.RoomRepository
	Members   repository.MemberRepository
	Messages  repository.MessageRepository
	Queue     qport.Client
	PageLimit int
}

// RoomSocketController owns one websocket session per request, end to end:
// authorize, admit, run the event loop, and guarantee eviction on every exit path.
type RoomSocketController struct {
	registry *realtime.Registry
	fanout   realtime.Broadcaster
	identity IdentityResolver
	queue    qport.Client

	authorizeUC *usecase.AuthorizeSessionUseCase
	enterUC     *usecase.EnterRoomUseCase
	leaveUC     *usecase.LeaveRoomUseCase
	postUC      *usecase.PostMessageUseCase
	historyUC   *usecase.GetHistoryUseCase

	pageLimit       int
	inflightTimeout time.Duration
}

func NewRoomSocketController(d RoomSocketDeps) *RoomSocketController {
	fanout := d.Fanout
	if fanout == nil {
		fanout = d.Registry
	}
	limit := d.PageLimit
	if limit <= 0 {
		limit = usecase.DefaultPageLimit
	}
	return &RoomSocketController{
		registry:        d.Registry,
		fanout:          fanout,
		identity:        d.Identity,
		queue:           d.Queue,
		authorizeUC:     usecase.NewAuthorizeSessionUseCase(d.Rooms, d.Members),
		enterUC:         usecase.NewEnterRoomUseCase(d.Members),
		leaveUC:         usecase.NewLeaveRoomUseCase(d.Members),
		postUC:          usecase.NewPostMessageUseCase(d.Messages),
		historyUC:       usecase.NewGetHistoryUseCase(d.Messages),
		pageLimit:       limit,
		inflightTimeout: 5 * time.Second,
	}
}

// bearerCredential extracts the presented credential: Authorization header first,
// then the token query parameter for clients that cannot set websocket headers.
func bearerCredential(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return r.URL.Query().Get("token")
}

// Handle upgrades the connection and runs the session. Authorization failures of
// any kind close the socket without an error frame: the client must reconnect.
func (ctl *RoomSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		roomName := c.Param("roomName")
		credential := bearerCredential(c.Request)

		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response; just return.
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.inflightTimeout)
		ident, err := ctl.identity.Resolve(ctx, credential)
		if err == nil {
			var room *chatRoomRef
			room, err = ctl.authorize(ctx, roomName, ident.ID)
			cancel()
			if err == nil {
				ctl.runSession(c.Request.Context(), ws, room, ident)
				return
			}
		} else {
			cancel()
		}

		// Silent reject: no frame distinguishes unknown room, bad credential, or
		// a private room the user is not a member of.
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, ""), time.Now().Add(time.Second))
		_ = ws.Close()
	}
}

// chatRoomRef is the slice of room state a session needs after authorization.
type chatRoomRef struct {
	ID   int64
	Name string
}

func (ctl *RoomSocketController) authorize(ctx context.Context, roomName string, userID int64) (*chatRoomRef, error) {
	room, err := ctl.authorizeUC.Execute(ctx, usecase.AuthorizeSessionInput{RoomName: roomName, UserID: userID})
	if err != nil {
		if !errors.Is(err, usecase.ErrRoomNotFound) && !errors.Is(err, usecase.ErrForbidden) {
			log.Printf("chat ws: authorize %q: %v", roomName, err)
		}
		return nil, err
	}
	return &chatRoomRef{ID: room.ID, Name: room.Name}, nil
}

func (ctl *RoomSocketController) runSession(ctx context.Context, ws *websocket.Conn, room *chatRoomRef, ident *user.User) {
	conn := realtime.NewConnection(ident.ID, ws)
	conn.Start()

	lease := ctl.registry.Admit(ctx, room.ID, conn)
	defer func() {
		// Cleanup runs on every exit path: explicit leave, abrupt disconnect, or
		// an internal fault. Release and Close are both idempotent.
		lease.Release(context.Background())
		conn.Close(websocket.CloseNormalClosure, "session closed")
	}()

	opCtx, cancel := context.WithTimeout(ctx, ctl.inflightTimeout)
	first, err := ctl.enterUC.Execute(opCtx, usecase.EnterRoomInput{RoomID: room.ID, UserID: ident.ID})
	cancel()
	if err != nil {
		log.Printf("chat ws: enter room %d: %v", room.ID, err)
		return
	}
	if first {
		ctl.announce(ctx, room.ID, ident.ID, fmt.Sprintf("%s has entered the chat", ident.Username))
	}

	ws.SetReadLimit(1 << 20) // 1MB payload cap
	_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			// Transport-level disconnect; the deferred release evicts us.
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			// Malformed frames are ignored, not fatal.
			continue
		}

		// Tags are mutually exclusive, classified in priority order.
		switch {
		case frame.Type == "disconnect" || frame.Type == "delete":
			if frame.Type == "delete" {
				ctl.deleteMembership(ctx, room, ident)
			}
			return

		case frame.Page != nil:
			if *frame.Page < 1 {
				continue
			}
			if !ctl.replyHistory(ctx, conn, room.ID, ident.ID, *frame.Page) {
				return
			}

		case frame.Content != nil:
			key := ""
			if frame.Key != nil {
				key = *frame.Key
			}
			ctl.postAndBroadcast(ctx, room.ID, ident.ID, key, *frame.Content)

		default:
			// Unrecognized frame: tolerated for future extension.
		}
	}
}

func (ctl *RoomSocketController) deleteMembership(ctx context.Context, room *chatRoomRef, ident *user.User) {
	opCtx, cancel := context.WithTimeout(ctx, ctl.inflightTimeout)
	defer cancel()
	if err := ctl.leaveUC.Execute(opCtx, usecase.LeaveRoomInput{RoomID: room.ID, UserID: ident.ID}); err != nil {
		log.Printf("chat ws: remove member from room %d: %v", room.ID, err)
		return
	}
	ctl.announce(ctx, room.ID, ident.ID, fmt.Sprintf("%s has left the chat", ident.Username))
}

// replyHistory unicasts one page of the room log. Returns false when the session
// should end: an unanticipated persistence fault, or an unwritable own socket.
func (ctl *RoomSocketController) replyHistory(ctx context.Context, conn *realtime.Connection, roomID, userID int64, page int) bool {
	opCtx, cancel := context.WithTimeout(ctx, ctl.inflightTimeout)
	defer cancel()

	msgs, err := ctl.historyUC.Execute(opCtx, usecase.GetHistoryInput{RoomID: roomID, Page: page, Limit: ctl.pageLimit})
	if err != nil {
		log.Printf("chat ws: history page %d for room %d: %v", page, roomID, err)
		return false
	}

	out := historyFrame{RoomID: roomID, UserID: userID, Messages: make([]messagePayload, 0, len(msgs))}
	for _, m := range msgs {
		out.Messages = append(out.Messages, messagePayload{
			Key:       m.Key,
			RoomID:    m.RoomID,
			UserID:    m.UserID,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	payload, err := json.Marshal(out)
	if err != nil {
		return true
	}
	if err := ctl.registry.SendTo(conn, payload); err != nil {
		log.Printf("chat ws: %v", err)
		return false
	}
	return true
}

// postAndBroadcast persists the content and, when a new row was stored, fans the
// acknowledgement out to the whole room, sender included. Persistence failures
// and duplicate keys both surface as "no ack": zero retries, session continues.
func (ctl *RoomSocketController) postAndBroadcast(ctx context.Context, roomID, userID int64, key, content string) {
	opCtx, cancel := context.WithTimeout(ctx, ctl.inflightTimeout)
	defer cancel()

	msg, stored, err := ctl.postUC.Execute(opCtx, usecase.PostMessageInput{
		RoomID:  roomID,
		UserID:  userID,
		Key:     key,
		Content: content,
	})
	if errors.Is(err, chat.ErrEmptyMessage) {
		return
	}
	if err != nil {
		log.Printf("chat ws: post message to room %d: %v", roomID, err)
		return
	}
	if !stored {
		// Duplicate key: already applied, no ack, no re-broadcast.
		return
	}

	payload, err := json.Marshal(ackFrame{
		Accepted: true,
		Key:      msg.Key,
		RoomID:   msg.RoomID,
		UserID:   msg.UserID,
		Content:  msg.Content,
	})
	if err != nil {
		return
	}
	ctl.fanout.Broadcast(ctx, roomID, payload)
}

func (ctl *RoomSocketController) announce(ctx context.Context, roomID, userID int64, content string) {
	payload, err := json.Marshal(systemFrame{RoomID: roomID, UserID: userID, Content: content})
	if err != nil {
		return
	}
	ctl.fanout.Broadcast(ctx, roomID, payload)

	if ctl.queue == nil {
		return
	}
	opCtx, cancel := context.WithTimeout(ctx, ctl.inflightTimeout)
	defer cancel()
	if err := task.EnqueueSystemNotice(opCtx, ctl.queue, task.SystemNoticeTaskPayload{
		RoomID:  roomID,
		UserID:  userID,
		Content: content,
	}); err != nil {
		log.Printf("chat ws: enqueue system notice for room %d: %v", roomID, err)
	}
}
