package realtime

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// Activator flips the persisted is_active flag of a room. It is implemented by the
// room repository so that the stored is_active state always follows the live
// connection count instead of a separately maintained counter.
type Activator interface {
	SetRoomActive(ctx context.Context, roomID int64, active bool) error
}

// Link is the contract a socket must satisfy to be tracked by the Registry.
// *Connection implements it; tests substitute stubs.
type Link interface {
	ID() string
	UserID() int64
	Send(payload []byte) error
	Close(code int, reason string)
}

// SendError reports a failed unicast to a single link.
type SendError struct {
	LinkID string
	Err    error
}

func (e *SendError) Error() string { return fmt.Sprintf("realtime: send to %s: %v", e.LinkID, e.Err) }
func (e *SendError) Unwrap() error { return e.Err }

// Registry tracks which live links belong to which room and provides the fan-out
// primitives used by room sessions. It is the only mutable state shared across
// session goroutines; a single mutex serializes Admit/Evict/Broadcast so the
// persisted room activity can never drift from the live set size.
type Registry struct {
	mu        sync.Mutex
	rooms     map[int64]map[string]Link
	activator Activator
}

// NewRegistry constructs an empty Registry bound to the given activator.
func NewRegistry(activator Activator) *Registry {
	return &Registry{
		rooms:     make(map[int64]map[string]Link),
		activator: activator,
	}
}

// Lease is the scoped handle returned by Admit. Release evicts the link exactly
// once no matter how many exit paths reach it.
type Lease struct {
	once   sync.Once
	reg    *Registry
	roomID int64
	link   Link
}

// Release evicts the leased link from its room. Safe to call more than once.
func (l *Lease) Release(ctx context.Context) {
	l.once.Do(func() {
		l.reg.Evict(ctx, l.roomID, l.link)
	})
}

// Admit adds link to the room's live set. The first link in a room marks the room
// active in storage. Activation runs under the registry lock so concurrent
// Admit/Evict on the same room cannot reorder the persisted toggles.
func (r *Registry) Admit(ctx context.Context, roomID int64, link Link) *Lease {
	r.mu.Lock()
	room := r.rooms[roomID]
	if room == nil {
		room = make(map[string]Link)
		r.rooms[roomID] = room
	}
	first := len(room) == 0
	room[link.ID()] = link
	if first {
		if err := r.activator.SetRoomActive(ctx, roomID, true); err != nil {
			log.Printf("realtime: mark room %d active: %v", roomID, err)
		}
	}
	r.mu.Unlock()

	return &Lease{reg: r, roomID: roomID, link: link}
}

// Evict removes link from the room's live set. Evicting an absent link is a no-op,
// which makes double-fault cleanup paths safe. The last link out marks the room
// inactive and drops the room entry so no stale empty set survives.
func (r *Registry) Evict(ctx context.Context, roomID int64, link Link) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.rooms[roomID]
	if room == nil {
		return
	}
	if _, ok := room[link.ID()]; !ok {
		return
	}
	delete(room, link.ID())
	if len(room) == 0 {
		delete(r.rooms, roomID)
		if err := r.activator.SetRoomActive(ctx, roomID, false); err != nil {
			log.Printf("realtime: mark room %d inactive: %v", roomID, err)
		}
	}
}

// SendTo unicasts payload to a single link.
func (r *Registry) SendTo(link Link, payload []byte) error {
	if err := link.Send(payload); err != nil {
		return &SendError{LinkID: link.ID(), Err: err}
	}
	return nil
}

// Broadcast delivers payload to every link currently in the room. A failure to
// write to one link never aborts delivery to the rest; dead links are evicted and
// closed after the pass. Sends happen under the registry lock, so broadcasts to
// one room reach each surviving link in the order they were issued.
func (r *Registry) Broadcast(ctx context.Context, roomID int64, payload []byte) int {
	r.mu.Lock()
	room := r.rooms[roomID]
	delivered := 0
	var failed []Link
	for _, link := range room {
		if err := link.Send(payload); err != nil {
			log.Printf("realtime: broadcast to %s in room %d: %v", link.ID(), roomID, err)
			failed = append(failed, link)
			continue
		}
		delivered++
	}
	r.mu.Unlock()

	for _, link := range failed {
		r.Evict(ctx, roomID, link)
		link.Close(1011, "unwritable peer")
	}
	return delivered
}

// Count reports the number of live links in the room.
func (r *Registry) Count(roomID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms[roomID])
}

// Close evicts and closes every tracked link, clearing all rooms.
func (r *Registry) Close(ctx context.Context) {
	r.mu.Lock()
	var links []Link
	for roomID, room := range r.rooms {
		for _, link := range room {
			links = append(links, link)
		}
		if err := r.activator.SetRoomActive(ctx, roomID, false); err != nil {
			log.Printf("realtime: mark room %d inactive: %v", roomID, err)
		}
	}
	r.rooms = make(map[int64]map[string]Link)
	r.mu.Unlock()

	for _, link := range links {
		link.Close(1001, "registry shutdown")
	}
}
