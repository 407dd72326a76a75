package chess

// Effect describes what Apply did to the board.
type Effect struct {
	Moved     PieceType
	Captured  *Piece
	EnPassant bool
	Castled   bool
	Promotion PieceType
}

// ResetsFiftyMoveCount reports whether the move was a capture or a pawn move.
func (e Effect) ResetsFiftyMoveCount() bool {
	return e.Captured != nil || e.Moved == Pawn
}

// Apply plays m on b. The move must already have passed Validate; Apply does
// not re-check legality. The double-step marker is cleared on every piece of
// the mover's opponent, since their window for en passant has just passed.
func Apply(b *Board, m Move) Effect {
	p := b.At(m.From)
	if p == nil {
		return Effect{}
	}
	eff := Effect{Moved: p.Type}

	if p.Type == Pawn && m.From.File != m.To.File && b.At(m.To) == nil {
		eff.Captured = b.remove(Sq(m.From.Rank, m.To.File))
		eff.EnPassant = eff.Captured != nil
	} else {
		eff.Captured = b.remove(m.To)
	}

	if p.Type == King && isCastle(m) {
		rookFrom, rookTo := castleRookSquares(m)
		if rook := b.relocate(rookFrom, rookTo); rook != nil {
			rook.HasMoved = true
			eff.Castled = true
		}
	}

	b.relocate(m.From, m.To)
	for _, q := range b.Pieces() {
		if q.Side != p.Side {
			q.JustDoubleStepped = false
		}
	}
	p.JustDoubleStepped = p.Type == Pawn && abs(m.To.Rank-m.From.Rank) == 2
	p.HasMoved = true
	if m.Promotion != NoPiece {
		p.Type = m.Promotion
		eff.Promotion = m.Promotion
	}
	return eff
}
