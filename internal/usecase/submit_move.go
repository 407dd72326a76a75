package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kasupel/server/internal/domain/chess"
	"github.com/kasupel/server/internal/domain/game"
	"github.com/kasupel/server/internal/ports"
)

// SubmitMoveRequest is the input to SubmitMove.
type SubmitMoveRequest struct {
	Side chess.Side
	Move chess.Move
	// ExpectedVersion, when set, must equal the stored StateVersion.
	ExpectedVersion *int
}

// MoveSubmitter handles move submission.
type MoveSubmitter struct {
	deps Deps
}

func NewMoveSubmitter(deps Deps) *MoveSubmitter {
	return &MoveSubmitter{deps: deps}
}

// SubmitMove plays req.Move in game id. Returns ErrVersionConflict (409),
// domain errors on illegal moves (422), or ErrTimedOut together with the
// concluded game when the mover's clock had already run out.
func (m *MoveSubmitter) SubmitMove(ctx context.Context, ip, token string, id uuid.UUID, req SubmitMoveRequest) (*game.Game, error) {
	if !m.deps.allow(ctx, ip, token) {
		return nil, ErrRateLimited
	}
	return m.deps.mutate(ctx, id, "game_move", func(g *game.Game, now time.Time) (*game.Game, error) {
		if req.ExpectedVersion != nil && g.StateVersion != *req.ExpectedVersion {
			return nil, ports.ErrVersionConflict
		}
		return g.AttemptMove(req.Side, req.Move, now)
	})
}
