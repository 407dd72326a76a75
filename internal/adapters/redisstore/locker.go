package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kasupel/server/internal/obslog"
	"github.com/kasupel/server/internal/ports"
)

const lockRetry = 20 * time.Millisecond

// releaseScript deletes the lock only while it still carries our token, so
// an expired lock taken over by another holder is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker is a per-game lock shared by every API process: SET NX PX with a
// random token, released by a token-checked delete.
type Locker struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewLocker(rdb *redis.Client, ttl time.Duration) *Locker {
	return &Locker{rdb: rdb, ttl: ttl}
}

func lockKey(id uuid.UUID) string { return "lock:game:" + id.String() }

// Lock polls until the lock is acquired or ctx is done.
func (l *Locker) Lock(ctx context.Context, id uuid.UUID) (func(), error) {
	key, token := lockKey(id), uuid.NewString()
	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ports.ErrLockBusy, ctx.Err())
		case <-time.After(lockRetry):
		}
	}
	return func() {
		// The caller's context may already be cancelled; release regardless.
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil {
			obslog.L().Warn("game_lock_release_failed", zap.String("game_id", id.String()), zap.Error(err))
		}
	}, nil
}
