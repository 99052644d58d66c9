package ports

import (
	"context"
	"time"
)

// Cache is the remote key/value cache
type Cache interface {
	// Get returns found=false on a miss
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
