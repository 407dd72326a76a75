package chess

// Validate reports whether side may play m on b. With
// allowLeavingKingInCheck set the self-check filter is skipped; the filter
// itself uses that mode to ask whether a square is attacked. Validate never
// modifies b.
func Validate(b *Board, side Side, m Move, allowLeavingKingInCheck bool) bool {
	return validate(actual(b), side, m, allowLeavingKingInCheck)
}

// InCheck reports whether side's king is attacked on b. A side without
// exactly one king is reported as in check.
func InCheck(b *Board, side Side) bool {
	if _, ok := b.King(side); !ok {
		return true
	}
	return exposesKing(actual(b), side, nil)
}

func validate(v view, side Side, m Move, allowCheck bool) bool {
	if m.From == m.To || !m.From.Valid() || !m.To.Valid() {
		return false
	}
	p := v.at(m.From)
	if p == nil || p.Side != side {
		return false
	}
	if !promotionAllowed(p, m) {
		return false
	}
	if p.Type == King && isCastle(m) {
		return canCastle(v, p, m)
	}
	if !reaches(v, p, m.To) {
		return false
	}
	return allowCheck || !exposesKing(v, side, moveChanges(v, p, m))
}

// promotionAllowed enforces that a pawn names a promotion exactly when it
// reaches the far rank, and that nothing else ever does.
func promotionAllowed(p *Piece, m Move) bool {
	if p.Type != Pawn || m.To.Rank != p.Side.FarRank() {
		return m.Promotion == NoPiece
	}
	switch m.Promotion {
	case Rook, Knight, Bishop, Queen:
		return true
	}
	return false
}

func isCastle(m Move) bool {
	return m.From.Rank == m.To.Rank && abs(m.To.File-m.From.File) == 2
}

// reaches reports whether p can move to to by its movement geometry on v:
// path clear for sliders, destination empty or enemy. King safety, castling
// and promotion are not considered.
func reaches(v view, p *Piece, to Square) bool {
	if !to.Valid() || to == p.Square {
		return false
	}
	target := v.at(to)
	if target != nil && target.Side == p.Side {
		return false
	}
	dr, df := to.Rank-p.Square.Rank, to.File-p.Square.File
	adr, adf := abs(dr), abs(df)

	switch p.Type {
	case Pawn:
		return pawnReaches(v, p, to, dr*p.Side.Forward(), adf, target)
	case Knight:
		return (adr == 1 && adf == 2) || (adr == 2 && adf == 1)
	case Bishop:
		return adr == adf && pathClear(v, p.Square, to)
	case Rook:
		return (adr == 0) != (adf == 0) && pathClear(v, p.Square, to)
	case Queen:
		return (adr == adf || (adr == 0) != (adf == 0)) && pathClear(v, p.Square, to)
	case King:
		return adr <= 1 && adf <= 1
	}
	return false
}

func pawnReaches(v view, p *Piece, to Square, forward, adf int, target *Piece) bool {
	switch {
	case forward == 1 && adf == 0:
		return target == nil
	case forward == 2 && adf == 0:
		mid := Sq(p.Square.Rank+p.Side.Forward(), p.Square.File)
		return !p.HasMoved && target == nil && v.empty(mid)
	case forward == 1 && adf == 1:
		if target != nil {
			return true
		}
		victim := v.at(Sq(p.Square.Rank, to.File))
		return victim != nil && victim.Side != p.Side && victim.Type == Pawn && victim.JustDoubleStepped
	}
	return false
}

// pathClear reports whether every square strictly between from and to is
// empty. from and to must share a rank, file or diagonal.
func pathClear(v view, from, to Square) bool {
	dr, df := sign(to.Rank-from.Rank), sign(to.File-from.File)
	for sq := Sq(from.Rank+dr, from.File+df); sq != to; sq = Sq(sq.Rank+dr, sq.File+df) {
		if !v.empty(sq) {
			return false
		}
	}
	return true
}

// canCastle checks every castling precondition. Castling never happens
// inside a hypothetical: it cannot capture, so it can never attack a king.
func canCastle(v view, king *Piece, m Move) bool {
	side := king.Side
	home := Sq(side.HomeRank(), 4)
	if v.hypothetical || king.HasMoved || king.Square != home || m.To.Rank != home.Rank {
		return false
	}
	if m.To.File != 2 && m.To.File != 6 {
		return false
	}
	rookFrom, _ := castleRookSquares(m)
	rook := v.at(rookFrom)
	if rook == nil || rook.Type != Rook || rook.Side != side || rook.HasMoved {
		return false
	}
	if !pathClear(v, home, rookFrom) {
		return false
	}
	if exposesKing(v, side, nil) {
		return false
	}
	passing := *king
	passing.Square = Sq(home.Rank, (home.File+m.To.File)/2)
	passing.HasMoved = true
	if exposesKing(v, side, []override{{sq: home}, {sq: passing.Square, piece: &passing}}) {
		return false
	}
	return !exposesKing(v, side, moveChanges(v, king, m))
}

// exposesKing reports whether side's king would be attacked once changes are
// laid over v. This is the hypothetical check: every enemy piece is asked,
// with the check filter bypassed, whether it reaches the king's square.
func exposesKing(v view, side Side, changes []override) bool {
	hv := v.with(changes)
	king := hv.king(side)
	if king == nil {
		return true
	}
	return attacked(hv, side, king.Square)
}

// attacked reports whether any piece of side's opponent reaches sq on v.
func attacked(v view, side Side, sq Square) bool {
	for _, enemy := range v.pieces(side.Other()) {
		if reaches(v, enemy, sq) {
			return true
		}
	}
	return false
}
