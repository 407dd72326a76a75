package chess

import (
	"errors"
	"fmt"
)

// ErrOccupied is returned when placing a piece on an occupied square.
var ErrOccupied = errors.New("square occupied")

// MaxPieces is the number of pieces in the starting position.
const MaxPieces = 32

// Board stores the pieces of one game indexed by square. Its mutators are
// unexported: pieces move only through Apply.
type Board struct {
	squares [8][8]*Piece
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{}
}

var backRow = [8]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// Layout returns a board with the standard starting position.
func Layout() *Board {
	b := NewBoard()
	for file, t := range backRow {
		b.squares[0][file] = &Piece{Type: t, Side: Host, Square: Sq(0, file)}
		b.squares[7][file] = &Piece{Type: t, Side: Away, Square: Sq(7, file)}
		b.squares[1][file] = &Piece{Type: Pawn, Side: Host, Square: Sq(1, file)}
		b.squares[6][file] = &Piece{Type: Pawn, Side: Away, Square: Sq(6, file)}
	}
	return b
}

// At returns the piece on sq, or nil.
func (b *Board) At(sq Square) *Piece {
	if !sq.Valid() {
		return nil
	}
	return b.squares[sq.Rank][sq.File]
}

// Empty reports whether sq is on the board and unoccupied.
func (b *Board) Empty(sq Square) bool {
	return sq.Valid() && b.squares[sq.Rank][sq.File] == nil
}

// EnemyAt reports whether sq holds a piece not belonging to side.
func (b *Board) EnemyAt(sq Square, side Side) bool {
	p := b.At(sq)
	return p != nil && p.Side != side
}

// Pieces returns every piece in ascending (rank, file) order.
func (b *Board) Pieces() []*Piece {
	out := make([]*Piece, 0, MaxPieces)
	for rank := 0; rank < 8; rank++ {
		for file := 0; file < 8; file++ {
			if p := b.squares[rank][file]; p != nil {
				out = append(out, p)
			}
		}
	}
	return out
}

// King returns the king of side. ok is false unless exactly one exists.
func (b *Board) King(side Side) (king *Piece, ok bool) {
	n := 0
	for _, p := range b.Pieces() {
		if p.Side == side && p.Type == King {
			king = p
			n++
		}
	}
	return king, n == 1
}

// Clone returns a deep copy of the board.
func (b *Board) Clone() *Board {
	c := NewBoard()
	for _, p := range b.Pieces() {
		cp := *p
		c.squares[cp.Square.Rank][cp.Square.File] = &cp
	}
	return c
}

// Equal reports whether both boards hold identical pieces and flags.
func (b *Board) Equal(o *Board) bool {
	for rank := 0; rank < 8; rank++ {
		for file := 0; file < 8; file++ {
			p, q := b.squares[rank][file], o.squares[rank][file]
			if (p == nil) != (q == nil) {
				return false
			}
			if p != nil && *p != *q {
				return false
			}
		}
	}
	return true
}

func (b *Board) place(p *Piece) error {
	if !p.Square.Valid() {
		return fmt.Errorf("place %s: square %s off board", p.Type, p.Square)
	}
	if b.At(p.Square) != nil {
		return fmt.Errorf("place %s on %s: %w", p.Type, p.Square, ErrOccupied)
	}
	b.squares[p.Square.Rank][p.Square.File] = p
	return nil
}

func (b *Board) remove(sq Square) *Piece {
	p := b.At(sq)
	if p != nil {
		b.squares[sq.Rank][sq.File] = nil
	}
	return p
}

// relocate moves the piece on from to the empty square to.
func (b *Board) relocate(from, to Square) *Piece {
	p := b.remove(from)
	if p == nil {
		return nil
	}
	p.Square = to
	b.squares[to.Rank][to.File] = p
	return p
}

// Placement is the exported view of one occupied square.
type Placement struct {
	Type PieceType
	Side Side
}

// Export returns the board as square -> (type, side).
func (b *Board) Export() map[Square]Placement {
	out := make(map[Square]Placement, MaxPieces)
	for _, p := range b.Pieces() {
		out[p.Square] = Placement{Type: p.Type, Side: p.Side}
	}
	return out
}

// Import builds a board from an exported placement. Move-history flags are
// inferred: a piece is unmoved when it stands on a square its side starts
// with that piece type.
func Import(placement map[Square]Placement) (*Board, error) {
	b := NewBoard()
	for sq, pl := range placement {
		p := &Piece{Type: pl.Type, Side: pl.Side, Square: sq}
		p.HasMoved = !onStartSquare(p)
		if err := b.place(p); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Restore builds a board from full piece records, keeping their flags.
func Restore(pieces []Piece) (*Board, error) {
	b := NewBoard()
	for i := range pieces {
		p := pieces[i]
		if p.Type < Pawn || p.Type > King {
			return nil, fmt.Errorf("restore: bad piece type %d on %s", p.Type, p.Square)
		}
		if err := b.place(&p); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func onStartSquare(p *Piece) bool {
	switch p.Type {
	case Pawn:
		return p.Square.Rank == p.Side.HomeRank()+p.Side.Forward()
	default:
		return p.Square.Rank == p.Side.HomeRank() && backRow[p.Square.File] == p.Type
	}
}
