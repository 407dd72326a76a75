package chess

// override replaces the content of one square; a nil piece empties it.
type override struct {
	sq    Square
	piece *Piece
}

// view is a read-only window on a Board with an optional layer of square
// overrides. Validation reads the board only through a view, so checking a
// hypothetical move never touches the real pieces. The overlay is passed by
// value down the call chain; nothing about it lives on the Board.
type view struct {
	board        *Board
	overrides    []override
	hypothetical bool
}

func actual(b *Board) view {
	return view{board: b}
}

// with layers changes on top of the real board. Hypothetical evaluation never
// nests: the attack probe run inside an overlay must not build another one.
func (v view) with(changes []override) view {
	if v.hypothetical {
		panic("chess: nested hypothetical evaluation")
	}
	return view{board: v.board, overrides: changes, hypothetical: true}
}

func (v view) at(sq Square) *Piece {
	if !sq.Valid() {
		return nil
	}
	for i := len(v.overrides) - 1; i >= 0; i-- {
		if v.overrides[i].sq == sq {
			return v.overrides[i].piece
		}
	}
	return v.board.At(sq)
}

func (v view) empty(sq Square) bool {
	return sq.Valid() && v.at(sq) == nil
}

// pieces returns the pieces of side as seen through the overlay, in
// ascending (rank, file) order.
func (v view) pieces(side Side) []*Piece {
	out := make([]*Piece, 0, 16)
	for rank := 0; rank < 8; rank++ {
		for file := 0; file < 8; file++ {
			if p := v.at(Sq(rank, file)); p != nil && p.Side == side {
				out = append(out, p)
			}
		}
	}
	return out
}

func (v view) king(side Side) *Piece {
	for _, p := range v.pieces(side) {
		if p.Type == King {
			return p
		}
	}
	return nil
}

// moveChanges lists the square overrides that playing m with p produces:
// origin emptied, destination filled with the moved (possibly promoted)
// piece, plus the en passant victim or the castling rook.
func moveChanges(v view, p *Piece, m Move) []override {
	moved := *p
	moved.Square = m.To
	moved.JustDoubleStepped = p.Type == Pawn && abs(m.To.Rank-m.From.Rank) == 2
	moved.HasMoved = true
	if m.Promotion != NoPiece {
		moved.Type = m.Promotion
	}
	changes := make([]override, 0, 4)
	changes = append(changes, override{sq: m.From}, override{sq: m.To, piece: &moved})

	switch {
	case p.Type == Pawn && m.From.File != m.To.File && v.at(m.To) == nil:
		changes = append(changes, override{sq: Sq(m.From.Rank, m.To.File)})
	case p.Type == King && abs(m.To.File-m.From.File) == 2:
		rookFrom, rookTo := castleRookSquares(m)
		if rook := v.at(rookFrom); rook != nil {
			r := *rook
			r.Square = rookTo
			r.HasMoved = true
			changes = append(changes, override{sq: rookFrom}, override{sq: rookTo, piece: &r})
		}
	}
	return changes
}

// castleRookSquares returns where the rook starts and ends for the castling
// king move m.
func castleRookSquares(m Move) (from, to Square) {
	rank := m.From.Rank
	if m.To.File > m.From.File {
		return Sq(rank, 7), Sq(rank, 5)
	}
	return Sq(rank, 0), Sq(rank, 3)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
