package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kasupel/server/internal/domain/game"
	"github.com/kasupel/server/internal/obslog"
)

var errNotExpired = errors.New("not expired")

// TimeoutSweeper concludes games whose side to move has run out of time
// without anyone reporting it.
type TimeoutSweeper struct {
	deps Deps
}

func NewTimeoutSweeper(deps Deps) *TimeoutSweeper {
	return &TimeoutSweeper{deps: deps}
}

// SweepOnce ends every expired game and returns how many it concluded. A
// game that changed since it was listed is re-checked under its lock.
func (s *TimeoutSweeper) SweepOnce(ctx context.Context) (int, error) {
	ids, err := s.deps.Store.ListExpired(ctx, s.deps.now())
	if err != nil {
		return 0, err
	}
	ended := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return ended, err
		}
		if s.sweep(ctx, id) {
			ended++
		}
	}
	if len(ids) > 0 {
		obslog.L().Info("timeout_sweep", zap.Int("expired", len(ids)), zap.Int("concluded", ended))
	}
	return ended, nil
}

func (s *TimeoutSweeper) sweep(ctx context.Context, id uuid.UUID) bool {
	_, err := s.deps.mutate(ctx, id, "game_timeout", func(g *game.Game, now time.Time) (*game.Game, error) {
		if !g.Expired(now) {
			return nil, errNotExpired
		}
		return g.ReportTimeout(g.SideToMove, now)
	})
	if err == nil {
		return true
	}
	if !errors.Is(err, errNotExpired) {
		obslog.L().Warn("timeout_sweep_failed", zap.String("game_id", id.String()), zap.Error(err))
	}
	return false
}

// Run sweeps every interval until ctx is done. A non-positive interval
// disables the sweep.
func (s *TimeoutSweeper) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
				obslog.L().Error("timeout_sweep_failed", zap.Error(err))
			}
		}
	}
}
