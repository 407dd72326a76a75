package chess

import "strings"

// CastlingRights records which castles are still possible in principle: the
// king and the relevant rook have never moved. Whether the castle is legal
// right now is a separate question answered by Validate.
type CastlingRights struct {
	HostKingside  bool
	HostQueenside bool
	AwayKingside  bool
	AwayQueenside bool
}

// Rights derives castling rights from the pieces' move history.
func Rights(b *Board) CastlingRights {
	var cr CastlingRights
	cr.HostKingside, cr.HostQueenside = sideRights(b, Host)
	cr.AwayKingside, cr.AwayQueenside = sideRights(b, Away)
	return cr
}

func sideRights(b *Board, side Side) (kingside, queenside bool) {
	rank := side.HomeRank()
	king := b.At(Sq(rank, 4))
	if king == nil || king.Type != King || king.Side != side || king.HasMoved {
		return false, false
	}
	unmovedRook := func(file int) bool {
		r := b.At(Sq(rank, file))
		return r != nil && r.Type == Rook && r.Side == side && !r.HasMoved
	}
	return unmovedRook(7), unmovedRook(0)
}

// String uses FEN letters with host as upper case, or "-" when none remain.
func (cr CastlingRights) String() string {
	var sb strings.Builder
	if cr.HostKingside {
		sb.WriteByte('K')
	}
	if cr.HostQueenside {
		sb.WriteByte('Q')
	}
	if cr.AwayKingside {
		sb.WriteByte('k')
	}
	if cr.AwayQueenside {
		sb.WriteByte('q')
	}
	if sb.Len() == 0 {
		return "-"
	}
	return sb.String()
}

// Snapshot returns the canonical arrangement used for repetition detection:
// each piece as letter+rank+file in ascending square order (host upper case),
// then the side to move, then the castling rights. The en passant target is
// not part of the encoding.
func Snapshot(b *Board, toMove Side) string {
	var sb strings.Builder
	for _, p := range b.Pieces() {
		letter := p.Type.Letter()
		if p.Side == Host {
			letter -= 'a' - 'A'
		}
		sb.WriteByte(letter)
		sb.WriteByte(byte('0' + p.Square.Rank))
		sb.WriteByte(byte('0' + p.Square.File))
	}
	sb.WriteByte(' ')
	sb.WriteByte(toMove.String()[0])
	sb.WriteByte(' ')
	sb.WriteString(Rights(b).String())
	return sb.String()
}
