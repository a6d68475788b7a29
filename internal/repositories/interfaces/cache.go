package interfaces

import (
	"context"
	"time"
)

// CacheService is the read-through cache repositories use. Implementations
// return an error on a miss.
type CacheService interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
