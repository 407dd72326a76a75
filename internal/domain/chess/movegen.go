package chess

type direction struct{ dr, df int }

var (
	rookDirections   = []direction{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	bishopDirections = []direction{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
	royalDirections  = []direction{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0}, {1, 1}}
	knightJumps      = []direction{{-1, -2}, {-1, 2}, {1, -2}, {1, 2}, {-2, -1}, {-2, 1}, {2, -1}, {2, 1}}
	pawnSteps        = []direction{{1, 0}, {2, 0}, {1, -1}, {1, 1}}
	promotionOrder   = []PieceType{Rook, Knight, Bishop, Queen}
)

// LegalMoves returns every legal move for side on b. Pieces are visited in
// ascending (rank, file) order and each piece type has a fixed direction
// order, so the result is deterministic.
func LegalMoves(b *Board, side Side) []Move {
	return legalMoves(b, side, -1)
}

// HasLegalMove reports whether side has at least one legal move.
func HasLegalMove(b *Board, side Side) bool {
	return len(legalMoves(b, side, 1)) > 0
}

func legalMoves(b *Board, side Side, limit int) []Move {
	v := actual(b)
	var out []Move
	for _, p := range b.Pieces() {
		if p.Side != side {
			continue
		}
		for _, m := range candidates(v, p) {
			if !validate(v, side, m, false) {
				continue
			}
			out = append(out, m)
			if limit > 0 && len(out) >= limit {
				return out
			}
		}
	}
	return out
}

// candidates enumerates the geometrically reachable destinations of p; the
// caller filters them through validate.
func candidates(v view, p *Piece) []Move {
	from := p.Square
	var out []Move
	switch p.Type {
	case Pawn:
		for _, d := range pawnSteps {
			to := Sq(from.Rank+d.dr*p.Side.Forward(), from.File+d.df)
			if !to.Valid() {
				continue
			}
			if to.Rank == p.Side.FarRank() {
				for _, promo := range promotionOrder {
					out = append(out, Move{From: from, To: to, Promotion: promo})
				}
				continue
			}
			out = append(out, Move{From: from, To: to})
		}
	case Knight:
		out = jumps(from, knightJumps)
	case King:
		out = jumps(from, royalDirections)
		if !p.HasMoved {
			for _, df := range []int{-2, 2} {
				if to := Sq(from.Rank, from.File+df); to.Valid() {
					out = append(out, Move{From: from, To: to})
				}
			}
		}
	case Rook:
		out = rays(v, from, rookDirections)
	case Bishop:
		out = rays(v, from, bishopDirections)
	case Queen:
		out = rays(v, from, royalDirections)
	}
	return out
}

func jumps(from Square, dirs []direction) []Move {
	out := make([]Move, 0, len(dirs))
	for _, d := range dirs {
		if to := Sq(from.Rank+d.dr, from.File+d.df); to.Valid() {
			out = append(out, Move{From: from, To: to})
		}
	}
	return out
}

// rays walks each direction until it leaves the board or hits a piece; the
// blocking square is included so captures are offered.
func rays(v view, from Square, dirs []direction) []Move {
	var out []Move
	for _, d := range dirs {
		for to := Sq(from.Rank+d.dr, from.File+d.df); to.Valid(); to = Sq(to.Rank+d.dr, to.File+d.df) {
			out = append(out, Move{From: from, To: to})
			if !v.empty(to) {
				break
			}
		}
	}
	return out
}

// Status is the rules-level state of the side to move.
type Status uint8

const (
	Ongoing Status = iota
	Checkmated
	Stalemated
)

// Evaluate reports whether toMove is checkmated, stalemated or can play on.
func Evaluate(b *Board, toMove Side) Status {
	if HasLegalMove(b, toMove) {
		return Ongoing
	}
	if InCheck(b, toMove) {
		return Checkmated
	}
	return Stalemated
}
