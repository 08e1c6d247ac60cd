package cache

import (
	"context"
	"time"
)

// Cache is a JSON object cache. The intake service uses it as a
// read-through cache of the latest session snapshot; it is always safe to
// run without one.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}
