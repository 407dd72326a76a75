// Package chess implements the chess rules: board storage, move validation
// with hypothetical check detection, legal move generation and the canonical
// position encoding used for repetition detection.
package chess

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBadMove is returned when a move or square string cannot be parsed.
var ErrBadMove = errors.New("invalid_uci")

// Side identifies one of the two players.
type Side uint8

const (
	Host Side = iota
	Away
)

// Other returns the opposing side.
func (s Side) Other() Side {
	if s == Host {
		return Away
	}
	return Host
}

// Forward is the rank direction pawns of this side advance in.
func (s Side) Forward() int {
	if s == Host {
		return 1
	}
	return -1
}

// HomeRank is the rank the side's king and rooks start on.
func (s Side) HomeRank() int {
	if s == Host {
		return 0
	}
	return 7
}

// FarRank is the rank a pawn of this side promotes on.
func (s Side) FarRank() int {
	return s.Other().HomeRank()
}

func (s Side) String() string {
	if s == Host {
		return "host"
	}
	return "away"
}

// ParseSide accepts "host" or "away" (case-insensitive).
func ParseSide(raw string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "host":
		return Host, nil
	case "away":
		return Away, nil
	}
	return Host, fmt.Errorf("unknown side %q", raw)
}

// PieceType is the kind of a chess piece. The zero value means "none" and is
// used for moves without a promotion.
type PieceType uint8

const (
	NoPiece PieceType = iota
	Pawn
	Rook
	Knight
	Bishop
	Queen
	King
)

var pieceNames = [...]string{"", "pawn", "rook", "knight", "bishop", "queen", "king"}

func (t PieceType) String() string {
	if int(t) < len(pieceNames) {
		return pieceNames[t]
	}
	return fmt.Sprintf("piece(%d)", uint8(t))
}

// Letter is the lower-case letter used in UCI promotions and snapshots.
func (t PieceType) Letter() byte {
	switch t {
	case Pawn:
		return 'p'
	case Rook:
		return 'r'
	case Knight:
		return 'n'
	case Bishop:
		return 'b'
	case Queen:
		return 'q'
	case King:
		return 'k'
	}
	return '?'
}

// ParsePieceType accepts full names ("queen") or letters ("q").
func ParsePieceType(raw string) (PieceType, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	for t := Pawn; t <= King; t++ {
		if s == t.String() || (len(s) == 1 && s[0] == t.Letter()) {
			return t, nil
		}
	}
	return NoPiece, fmt.Errorf("unknown piece type %q", raw)
}

// Square is a board coordinate; rank 0 is the host's home rank, file 0 is
// the a-file.
type Square struct {
	Rank int
	File int
}

// Sq is shorthand for Square{rank, file}.
func Sq(rank, file int) Square { return Square{Rank: rank, File: file} }

// Valid reports whether the square lies on the board.
func (s Square) Valid() bool {
	return s.Rank >= 0 && s.Rank <= 7 && s.File >= 0 && s.File <= 7
}

// String returns algebraic notation, e.g. "e2".
func (s Square) String() string {
	if !s.Valid() {
		return fmt.Sprintf("(%d,%d)", s.Rank, s.File)
	}
	return string([]byte{byte('a' + s.File), byte('1' + s.Rank)})
}

// ParseSquare parses algebraic notation such as "e2".
func ParseSquare(raw string) (Square, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return Square{}, fmt.Errorf("%w: bad square %q", ErrBadMove, raw)
	}
	return Sq(int(s[1]-'1'), int(s[0]-'a')), nil
}

// Piece is a piece on the board. JustDoubleStepped is set only on a pawn
// whose previous move was its two-square first advance, and only until the
// opponent has replied.
type Piece struct {
	Type              PieceType
	Side              Side
	Square            Square
	HasMoved          bool
	JustDoubleStepped bool
}

// Move is a proposed relocation of the piece on From. Promotion is NoPiece
// unless a pawn reaches the far rank.
type Move struct {
	From      Square
	To        Square
	Promotion PieceType
}

// String returns UCI notation, e.g. "e7e8q".
func (m Move) String() string {
	s := m.From.String() + m.To.String()
	if m.Promotion != NoPiece {
		s += string(m.Promotion.Letter())
	}
	return s
}

// ParseMove parses UCI notation: [a-h][1-8][a-h][1-8] with an optional
// promotion letter [rnbq].
func ParseMove(raw string) (Move, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if len(s) < 4 || len(s) > 5 {
		return Move{}, fmt.Errorf("%w: %q", ErrBadMove, raw)
	}
	from, err := ParseSquare(s[:2])
	if err != nil {
		return Move{}, err
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return Move{}, err
	}
	m := Move{From: from, To: to}
	if len(s) == 5 {
		switch s[4] {
		case 'r':
			m.Promotion = Rook
		case 'n':
			m.Promotion = Knight
		case 'b':
			m.Promotion = Bishop
		case 'q':
			m.Promotion = Queen
		default:
			return Move{}, fmt.Errorf("%w: bad promotion in %q", ErrBadMove, raw)
		}
	}
	return m, nil
}
