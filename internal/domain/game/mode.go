package game

import (
	"fmt"
	"sort"

	"github.com/kasupel/server/internal/domain/chess"
)

// Mode is the rules contract a game is played under. Chess is the only
// implementation.
type Mode interface {
	Name() string
	Layout() *chess.Board
	// ValidateAndApply plays m for side on b when it is legal; b is left
	// untouched otherwise.
	ValidateAndApply(b *chess.Board, side chess.Side, m chess.Move) (chess.Effect, bool)
	LegalMoves(b *chess.Board, side chess.Side) []chess.Move
	Evaluate(b *chess.Board, toMove chess.Side) chess.Status
	Snapshot(b *chess.Board, toMove chess.Side) string
}

// DefaultMode is used when a game does not name one.
const DefaultMode = "chess"

var modes = map[string]Mode{
	DefaultMode: chess.Rules{},
}

// LookupMode returns the registered mode called name.
func LookupMode(name string) (Mode, error) {
	if name == "" {
		name = DefaultMode
	}
	m, ok := modes[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown mode %q", ErrBadSetup, name)
	}
	return m, nil
}

// ModeNames lists the registered modes in sorted order.
func ModeNames() []string {
	out := make([]string, 0, len(modes))
	for name := range modes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
