package memory

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// AlwaysAllow is a RateLimiter that permits every request.
type AlwaysAllow struct{}

func (AlwaysAllow) Allow(_ context.Context, _, _ string) bool { return true }

// WindowLimiter allows limit requests per client per window, counted in
// process with one token bucket per client. It stands in for
// redisstore.RateLimiter on single-instance runs.
type WindowLimiter struct {
	every  rate.Limit
	burst  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	clients map[string]*rate.Limiter
	pruned  time.Time
}

func NewWindowLimiter(limit int, window time.Duration) *WindowLimiter {
	return &WindowLimiter{
		every:   rate.Every(window / time.Duration(limit)),
		burst:   limit,
		window:  window,
		now:     time.Now,
		clients: make(map[string]*rate.Limiter),
	}
}

// Allow takes one token from the client's bucket. The client is the token
// when present, otherwise the IP.
func (l *WindowLimiter) Allow(_ context.Context, ip, token string) bool {
	client := "ip:" + ip
	if token != "" {
		client = "token:" + token
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(now)
	lim, ok := l.clients[client]
	if !ok {
		lim = rate.NewLimiter(l.every, l.burst)
		l.clients[client] = lim
	}
	return lim.AllowN(now, 1)
}

// prune drops full buckets once per window; a full bucket behaves exactly
// like a new one.
func (l *WindowLimiter) prune(now time.Time) {
	if now.Sub(l.pruned) < l.window {
		return
	}
	l.pruned = now
	for client, lim := range l.clients {
		if lim.TokensAt(now) >= float64(l.burst) {
			delete(l.clients, client)
		}
	}
}
