package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/kasupel/server/internal/domain/chess"
	"github.com/kasupel/server/internal/domain/game"
)

// GameGetter handles read-only queries.
type GameGetter struct {
	deps Deps
}

func NewGameGetter(deps Deps) *GameGetter {
	return &GameGetter{deps: deps}
}

func (g *GameGetter) GetGame(ctx context.Context, ip, token string, id uuid.UUID) (*game.Game, error) {
	if !g.deps.allow(ctx, ip, token) {
		return nil, ErrRateLimited
	}
	return g.deps.Store.GetByID(ctx, id)
}

// LegalMoves lists the moves side could play in game id right now.
func (g *GameGetter) LegalMoves(ctx context.Context, ip, token string, id uuid.UUID, side chess.Side) ([]chess.Move, error) {
	cur, err := g.GetGame(ctx, ip, token, id)
	if err != nil {
		return nil, err
	}
	return cur.LegalMoves(side), nil
}
