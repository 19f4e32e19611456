package redis

import (
	"context"
	"time"
)

// ResponseStoreInterface defines the storage of replayable HTTP responses.
type ResponseStoreInterface interface {
	GetResponse(ctx context.Context, key string) (*CachedResponse, error)
	SetResponse(ctx context.Context, key string, resp *CachedResponse, ttl time.Duration) error
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Ensure concrete types implement interfaces.
var (
	_ ResponseStoreInterface = (*ResponseStore)(nil)
	_ LockStoreInterface     = (*LockStore)(nil)
)
