package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kasupel/server/internal/domain/chess"
	"github.com/kasupel/server/internal/domain/clock"
	"github.com/kasupel/server/internal/domain/game"
	"github.com/kasupel/server/internal/obslog"
)

// Presets resolves a named time control.
type Presets interface {
	Lookup(name string) (clock.Control, error)
}

// CreateRequest is the input to Create. Control, when set, wins over
// TimeControl; with neither the default preset is used.
type CreateRequest struct {
	Mode        string
	First       chess.Side
	TimeControl string
	Control     *clock.Control
	FEN         string
}

// GameCreator starts new games.
type GameCreator struct {
	deps          Deps
	presets       Presets
	defaultPreset string
}

func NewGameCreator(deps Deps, presets Presets, defaultPreset string) *GameCreator {
	return &GameCreator{deps: deps, presets: presets, defaultPreset: defaultPreset}
}

func (c *GameCreator) Create(ctx context.Context, ip, token string, req CreateRequest) (*game.Game, error) {
	if !c.deps.allow(ctx, ip, token) {
		return nil, ErrRateLimited
	}

	var control clock.Control
	if req.Control != nil {
		control = *req.Control
	} else {
		name := req.TimeControl
		if name == "" {
			name = c.defaultPreset
		}
		preset, err := c.presets.Lookup(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", game.ErrBadSetup, err)
		}
		control = preset
	}

	g, err := game.NewGame(uuid.New(), game.Setup{
		Mode:    req.Mode,
		First:   req.First,
		Control: control,
		FEN:     req.FEN,
	}, c.deps.now())
	if err != nil {
		return nil, err
	}
	if err := c.deps.Store.Insert(ctx, g); err != nil {
		return nil, err
	}

	obslog.L().Info("game_create",
		zap.String("game_id", g.ID.String()),
		zap.String("mode", g.Mode.Name()),
		zap.String("side_to_move", g.SideToMove.String()),
		zap.Duration("main", control.Main),
		zap.Duration("fixed_extra", control.FixedExtra),
		zap.Duration("increment", control.Increment),
	)
	if !g.InProgress() {
		c.deps.concluded(ctx, g)
	}
	return g, nil
}
