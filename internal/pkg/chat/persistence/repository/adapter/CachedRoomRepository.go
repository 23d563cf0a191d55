package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	cacheport "github.com/PivnoyFei/task-for-mango-fzco/internal/infrastructure/cache/port"
	chat "github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/chat/domain"
	repository "github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/chat/persistence/repository/port"
)

// CachedRoomRepository decorates a RoomRepository with a short-TTL read-through
// cache on ByName, the lookup every websocket session performs during
// authorization. Only the immutable identity attributes are cached; IsActive is
// always zero in a cache hit and must never be read from this path (the realtime
// registry owns activity).
type CachedRoomRepository struct {
	repository.RoomRepository
	cache cacheport.Cache
	ttl   time.Duration
}

func NewCachedRoomRepository(inner repository.RoomRepository, cache cacheport.Cache, ttl time.Duration) *CachedRoomRepository {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedRoomRepository{RoomRepository: inner, cache: cache, ttl: ttl}
}

// cachedRoom is the serialized subset of a room safe to serve stale.
type cachedRoom struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Privat    bool      `json:"privat"`
	CreatedAt time.Time `json:"created_at"`
}

func roomKey(name string) string { return "room:name:" + name }

func (r *CachedRoomRepository) ByName(ctx context.Context, name string) (*chat.Room, error) {
	if raw, err := r.cache.Get(ctx, roomKey(name)); err == nil {
		var c cachedRoom
		if json.Unmarshal([]byte(raw), &c) == nil {
			return &chat.Room{ID: c.ID, Name: c.Name, Privat: c.Privat, CreatedAt: c.CreatedAt}, nil
		}
	} else if !errors.Is(err, cacheport.ErrMiss) {
		log.Printf("room cache: get %q: %v", name, err)
	}

	room, err := r.RoomRepository.ByName(ctx, name)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(cachedRoom{ID: room.ID, Name: room.Name, Privat: room.Privat, CreatedAt: room.CreatedAt})
	if err == nil {
		if err := r.cache.Set(ctx, roomKey(name), string(raw), r.ttl); err != nil {
			log.Printf("room cache: set %q: %v", name, err)
		}
	}
	return room, nil
}

// Delete drops the room and invalidates its cache entry.
func (r *CachedRoomRepository) Delete(ctx context.Context, name string) error {
	if err := r.RoomRepository.Delete(ctx, name); err != nil {
		return err
	}
	if _, err := r.cache.Del(ctx, roomKey(name)); err != nil {
		log.Printf("room cache: del %q: %v", name, err)
	}
	return nil
}
