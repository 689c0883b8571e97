package cache

import (
	"context"
	"time"
)

// Cache stores JSON-encodable values under string keys for a limited time.
type Cache interface {
	// Get decodes the value stored under key into dest and reports whether
	// the key was present.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
