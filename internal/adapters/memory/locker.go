package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/kasupel/server/internal/ports"
)

// KeyedLocker hands out one mutex per game id. Entries are dropped once no
// caller holds or waits for them.
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*keyedLock
}

type keyedLock struct {
	ch   chan struct{}
	refs int
}

// NewKeyedLocker creates an empty KeyedLocker.
func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{locks: make(map[uuid.UUID]*keyedLock)}
}

// Lock blocks until the lock for id is free or ctx is done.
func (l *KeyedLocker) Lock(ctx context.Context, id uuid.UUID) (func(), error) {
	l.mu.Lock()
	kl, ok := l.locks[id]
	if !ok {
		kl = &keyedLock{ch: make(chan struct{}, 1)}
		l.locks[id] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(id, kl)
		return nil, fmt.Errorf("%w: %w", ports.ErrLockBusy, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-kl.ch
			l.release(id, kl)
		})
	}, nil
}

func (l *KeyedLocker) release(id uuid.UUID, kl *keyedLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, id)
	}
}
