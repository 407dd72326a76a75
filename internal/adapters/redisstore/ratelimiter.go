package redisstore

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kasupel/server/internal/obslog"
)

// RateLimiter allows a fixed number of requests per client per window.
type RateLimiter struct {
	rdb    *redis.Client
	limit  int64
	window time.Duration
	now    func() time.Time
}

func NewRateLimiter(rdb *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{rdb: rdb, limit: int64(limit), window: window, now: time.Now}
}

// Allow counts the request against the current window. The client is the
// token when present, otherwise the IP. Redis failures fail open.
func (r *RateLimiter) Allow(ctx context.Context, ip, token string) bool {
	client := "ip:" + ip
	if token != "" {
		client = "token:" + token
	}
	slot := r.now().UnixNano() / int64(r.window)
	key := "rl:" + client + ":" + strconv.FormatInt(slot, 10)

	var incr *redis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, r.window)
		return nil
	})
	if err != nil {
		obslog.L().Warn("rate_limit_unavailable", zap.Error(err))
		return true
	}
	return incr.Val() <= r.limit
}
