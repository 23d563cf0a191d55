package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Broadcaster is the room-wide delivery primitive sessions depend on.
// *Registry satisfies it for single-node deployments; *Fanout for clusters.
type Broadcaster interface {
	Broadcast(ctx context.Context, roomID int64, payload []byte) int
}

const relaySubjectPrefix = "chat.room."

// relayEnvelope carries a room broadcast between nodes. Node tags the origin so a
// node never re-delivers its own publishes.
type relayEnvelope struct {
	Node    string          `json:"node"`
	RoomID  int64           `json:"room_id"`
	Payload json.RawMessage `json:"payload"`
}

// Fanout extends local registry broadcasts to peer nodes over NATS. Members of a
// room connected to other processes receive the payload through each node's own
// registry; local delivery is never gated on the relay being reachable.
type Fanout struct {
	reg  *Registry
	nc   *nats.Conn
	node string
	sub  *nats.Subscription
}

// NewFanout subscribes to the room relay subjects and returns a Fanout wrapping reg.
func NewFanout(reg *Registry, nc *nats.Conn) (*Fanout, error) {
	f := &Fanout{reg: reg, nc: nc, node: uuid.NewString()}
	sub, err := nc.Subscribe(relaySubjectPrefix+"*", f.handleRelay)
	if err != nil {
		return nil, fmt.Errorf("realtime: subscribe relay: %w", err)
	}
	f.sub = sub
	return f, nil
}

// Broadcast delivers locally, then relays to peer nodes. Relay publish failures
// are logged; the local delivery count is returned either way.
func (f *Fanout) Broadcast(ctx context.Context, roomID int64, payload []byte) int {
	delivered := f.reg.Broadcast(ctx, roomID, payload)

	env, err := json.Marshal(relayEnvelope{Node: f.node, RoomID: roomID, Payload: payload})
	if err == nil {
		err = f.nc.Publish(fmt.Sprintf("%s%d", relaySubjectPrefix, roomID), env)
	}
	if err != nil {
		log.Printf("realtime: relay room %d: %v", roomID, err)
	}
	return delivered
}

func (f *Fanout) handleRelay(msg *nats.Msg) {
	var env relayEnvelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		log.Printf("realtime: relay decode: %v", err)
		return
	}
	if env.Node == f.node {
		return
	}
	f.reg.Broadcast(context.Background(), env.RoomID, env.Payload)
}

// Close drops the relay subscription. The underlying NATS connection is owned by
// the caller.
func (f *Fanout) Close() {
	if f.sub != nil {
		_ = f.sub.Unsubscribe()
	}
}
