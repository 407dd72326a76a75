// Package usecase holds one struct per application operation. Every mutating
// operation runs lock, load, domain op and compare-and-swap save for a single
// game.
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kasupel/server/internal/domain/game"
	"github.com/kasupel/server/internal/obslog"
	"github.com/kasupel/server/internal/ports"
)

var (
	ErrRateLimited = errors.New("rate limited")
	// ErrClockRunning rejects a timeout report before the boundary.
	ErrClockRunning = errors.New("clock_running")
)

// Deps are the adapters shared by all use cases. Archive may be nil.
type Deps struct {
	Store   ports.GameStore
	Locker  ports.Locker
	Archive ports.ResultArchive
	Limiter ports.RateLimiter
	Now     func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

func (d Deps) allow(ctx context.Context, ip, token string) bool {
	return d.Limiter == nil || d.Limiter.Allow(ctx, ip, token)
}

// op is a domain operation. A non-nil game is persisted even when err is
// set; this is how a move attempt that runs into the clock boundary ends the
// game and still reports ErrTimedOut.
type op func(g *game.Game, now time.Time) (*game.Game, error)

// mutate applies fn to game id while holding the game's lock.
func (d Deps) mutate(ctx context.Context, id uuid.UUID, event string, fn op) (*game.Game, error) {
	unlock, err := d.Locker.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	g, err := d.Store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := d.now()
	next, opErr := fn(g, now)
	if next == nil {
		return nil, opErr
	}
	if err := d.Store.SaveIfVersion(ctx, next, g.StateVersion); err != nil {
		return nil, err
	}

	obslog.L().Info(event,
		zap.String("game_id", id.String()),
		zap.Int("ply", next.Ply),
		zap.Int("state_version", next.StateVersion),
	)
	if g.InProgress() && !next.InProgress() {
		d.concluded(ctx, next)
	}
	return next, opErr
}

// concluded logs the end of a game and hands it to the archive. Archive
// failures do not undo the saved result.
func (d Deps) concluded(ctx context.Context, g *game.Game) {
	obslog.L().Info("game_end",
		zap.String("game_id", g.ID.String()),
		zap.String("conclusion", string(g.Conclusion)),
		zap.String("winner", string(g.Winner)),
		zap.Int("ply", g.Ply),
	)
	if d.Archive == nil {
		return
	}
	if err := d.Archive.Archive(ctx, g); err != nil {
		obslog.L().Warn("game_archive_failed",
			zap.String("game_id", g.ID.String()),
			zap.Error(err),
		)
	}
}
