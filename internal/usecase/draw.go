package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kasupel/server/internal/domain/chess"
	"github.com/kasupel/server/internal/domain/game"
)

// DrawHandler handles draw offers and claims.
type DrawHandler struct {
	deps Deps
}

func NewDrawHandler(deps Deps) *DrawHandler {
	return &DrawHandler{deps: deps}
}

func (d *DrawHandler) OfferDraw(ctx context.Context, ip, token string, id uuid.UUID, side chess.Side) (*game.Game, error) {
	if !d.deps.allow(ctx, ip, token) {
		return nil, ErrRateLimited
	}
	return d.deps.mutate(ctx, id, "game_draw_offer", func(g *game.Game, now time.Time) (*game.Game, error) {
		return g.OfferDraw(side, now)
	})
}

func (d *DrawHandler) ClaimDraw(ctx context.Context, ip, token string, id uuid.UUID, side chess.Side, reason game.Conclusion) (*game.Game, error) {
	if !d.deps.allow(ctx, ip, token) {
		return nil, ErrRateLimited
	}
	return d.deps.mutate(ctx, id, "game_draw_claim", func(g *game.Game, now time.Time) (*game.Game, error) {
		return g.ClaimDraw(side, reason, now)
	})
}
