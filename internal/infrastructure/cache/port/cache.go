package port

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is the typed cache-miss signal, so callers can separate a miss from a
// transport failure with errors.Is.
var ErrMiss = errors.New("cache: miss")

// Cache is the key-value contract the repositories decorate over. Values are
// plain strings; serialization stays with the caller. Implementations must be
// safe for concurrent use.
type Cache interface {
	// Get returns the value for key, or ErrMiss when the key is absent.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key. A non-positive TTL means no expiration.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Del removes keys and reports how many existed.
	Del(ctx context.Context, keys ...string) (int64, error)

	// Ping verifies connectivity with the backend.
	Ping(ctx context.Context) error

	Close() error
}
