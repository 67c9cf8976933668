package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// SyncLocker implements usecase.SyncLocker using Redis SETNX. One lock per
// connection keeps overlapping sync passes from applying the same delta
// twice across processes.
type SyncLocker struct {
	client *redis.Client
	prefix string
}

// NewSyncLocker creates a new SyncLocker.
func NewSyncLocker(client *redis.Client) *SyncLocker {
	return &SyncLocker{
		client: client,
		prefix: "synclock:",
	}
}

// TryLock acquires the per-connection lock. Returns false when another sync
// pass already holds it.
func (l *SyncLocker) TryLock(ctx context.Context, connectionID string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, l.prefix+connectionID, "locked", ttl).Result()
}

// Unlock releases the per-connection lock. The TTL covers the crash case
// where Unlock never runs.
func (l *SyncLocker) Unlock(ctx context.Context, connectionID string) error {
	return l.client.Del(ctx, l.prefix+connectionID).Err()
}
