package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kasupel/server/internal/domain/chess"
	"github.com/kasupel/server/internal/domain/game"
)

// Resigner ends games by resignation or on time.
type Resigner struct {
	deps Deps
}

func NewResigner(deps Deps) *Resigner {
	return &Resigner{deps: deps}
}

func (r *Resigner) Resign(ctx context.Context, ip, token string, id uuid.UUID, side chess.Side) (*game.Game, error) {
	if !r.deps.allow(ctx, ip, token) {
		return nil, ErrRateLimited
	}
	return r.deps.mutate(ctx, id, "game_resign", func(g *game.Game, now time.Time) (*game.Game, error) {
		return g.Resign(side, now)
	})
}

// ReportTimeout ends the game with side losing on time. Only the side to
// move can run out, and only once its boundary has passed.
func (r *Resigner) ReportTimeout(ctx context.Context, ip, token string, id uuid.UUID, side chess.Side) (*game.Game, error) {
	if !r.deps.allow(ctx, ip, token) {
		return nil, ErrRateLimited
	}
	return r.deps.mutate(ctx, id, "game_timeout", func(g *game.Game, now time.Time) (*game.Game, error) {
		if g.InProgress() && (side != g.SideToMove || !g.Expired(now)) {
			return nil, ErrClockRunning
		}
		return g.ReportTimeout(side, now)
	})
}
