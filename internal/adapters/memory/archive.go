package memory

import (
	"context"
	"sync"

	"github.com/kasupel/server/internal/domain/game"
)

// Archive keeps concluded games in memory.
type Archive struct {
	mu    sync.Mutex
	games []*game.Game
}

func (a *Archive) Archive(_ context.Context, g *game.Game) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.games = append(a.games, g)
	return nil
}

// Games returns the archived games in arrival order.
func (a *Archive) Games() []*game.Game {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*game.Game(nil), a.games...)
}
