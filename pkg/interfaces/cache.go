package interfaces

import (
	"context"
	"time"
)

// CacheProvider abstracts the cache used by repositories and services.
type CacheProvider interface {
	Get(ctx context.Context, key string) (any, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
