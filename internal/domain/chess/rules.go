package chess

// Rules bundles the chess rules behind the game-mode contract used by the
// game state machine.
type Rules struct{}

// Name identifies the mode in persisted games.
func (Rules) Name() string { return "chess" }

// Layout returns the standard starting position.
func (Rules) Layout() *Board { return Layout() }

// ValidateAndApply plays m for side when it is legal. b is untouched when ok
// is false.
func (Rules) ValidateAndApply(b *Board, side Side, m Move) (eff Effect, ok bool) {
	if !Validate(b, side, m, false) {
		return Effect{}, false
	}
	return Apply(b, m), true
}

// LegalMoves lists the legal moves for side.
func (Rules) LegalMoves(b *Board, side Side) []Move { return LegalMoves(b, side) }

// Evaluate reports checkmate or stalemate for the side to move.
func (Rules) Evaluate(b *Board, toMove Side) Status { return Evaluate(b, toMove) }

// Snapshot returns the canonical arrangement of the position.
func (Rules) Snapshot(b *Board, toMove Side) string { return Snapshot(b, toMove) }
