package chess

import (
	"fmt"
	"strconv"
	"strings"

	nchess "github.com/notnil/chess"
)

var (
	toNotnilType = map[PieceType]nchess.PieceType{
		Pawn: nchess.Pawn, Rook: nchess.Rook, Knight: nchess.Knight,
		Bishop: nchess.Bishop, Queen: nchess.Queen, King: nchess.King,
	}
	fromNotnilType = map[nchess.PieceType]PieceType{
		nchess.Pawn: Pawn, nchess.Rook: Rook, nchess.Knight: Knight,
		nchess.Bishop: Bishop, nchess.Queen: Queen, nchess.King: King,
	}
)

// FromFEN builds a board from a FEN record. Host plays the white pieces.
// Move-history flags are reconstructed from the castling and en passant
// fields: kings and rooks are unmoved only where a castling right says so,
// and the pawn that made the advertised double step is marked.
func FromFEN(fen string) (*Board, Side, error) {
	opt, err := nchess.FEN(fen)
	if err != nil {
		return nil, Host, fmt.Errorf("parse fen: %w", err)
	}
	pos := nchess.NewGame(opt).Position()
	rights := pos.CastleRights()
	toMove := Host
	if pos.Turn() == nchess.Black {
		toMove = Away
	}

	b := NewBoard()
	for nsq, np := range pos.Board().SquareMap() {
		t, ok := fromNotnilType[np.Type()]
		if !ok {
			continue
		}
		side := Host
		if np.Color() == nchess.Black {
			side = Away
		}
		p := &Piece{Type: t, Side: side, Square: Sq(int(nsq.Rank()), int(nsq.File()))}
		p.HasMoved = !onStartSquare(p)
		if !p.HasMoved && (t == King || t == Rook) {
			p.HasMoved = !fenRightKeepsUnmoved(rights, p)
		}
		if err := b.place(p); err != nil {
			return nil, Host, err
		}
	}

	if fields := strings.Fields(fen); len(fields) > 3 && fields[3] != "-" {
		target, err := ParseSquare(fields[3])
		if err != nil {
			return nil, Host, fmt.Errorf("parse fen en passant: %w", err)
		}
		mover := toMove.Other()
		if p := b.At(Sq(target.Rank+mover.Forward(), target.File)); p != nil && p.Type == Pawn && p.Side == mover {
			p.JustDoubleStepped = true
			p.HasMoved = true
		}
	}
	return b, toMove, nil
}

// HalfmoveClock returns the fifty-move counter field of a FEN record, or 0
// when it is missing or malformed.
func HalfmoveClock(fen string) int {
	fields := strings.Fields(fen)
	if len(fields) < 5 {
		return 0
	}
	n, err := strconv.Atoi(fields[4])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func fenRightKeepsUnmoved(rights nchess.CastleRights, p *Piece) bool {
	color := nchess.White
	if p.Side == Away {
		color = nchess.Black
	}
	king := rights.CanCastle(color, nchess.KingSide)
	queen := rights.CanCastle(color, nchess.QueenSide)
	switch {
	case p.Type == King:
		return king || queen
	case p.Square.File == 7:
		return king
	default:
		return queen
	}
}

// FEN renders b as a FEN record. halfmoves is the fifty-move counter and
// fullmoves the move number.
func FEN(b *Board, toMove Side, halfmoves, fullmoves int) string {
	squares := make(map[nchess.Square]nchess.Piece, MaxPieces)
	for _, p := range b.Pieces() {
		color := nchess.White
		if p.Side == Away {
			color = nchess.Black
		}
		nsq := nchess.NewSquare(nchess.File(p.Square.File), nchess.Rank(p.Square.Rank))
		squares[nsq] = nchess.NewPiece(toNotnilType[p.Type], color)
	}
	turn := "w"
	if toMove == Away {
		turn = "b"
	}
	ep := "-"
	for _, p := range b.Pieces() {
		if p.Type == Pawn && p.JustDoubleStepped && p.Side != toMove {
			ep = Sq(p.Square.Rank-p.Side.Forward(), p.Square.File).String()
		}
	}
	if fullmoves < 1 {
		fullmoves = 1
	}
	return fmt.Sprintf("%s %s %s %s %d %d",
		nchess.NewBoard(squares).String(), turn, Rights(b), ep, halfmoves, fullmoves)
}
