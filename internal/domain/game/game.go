package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kasupel/server/internal/domain/chess"
	"github.com/kasupel/server/internal/domain/clock"
	"github.com/kasupel/server/internal/domain/history"
)

// Conclusion values match the contract enum.
type Conclusion string

const (
	InProgress          Conclusion = "in_progress"
	Checkmate           Conclusion = "checkmate"
	Resign              Conclusion = "resign"
	Timeout             Conclusion = "timeout"
	Stalemate           Conclusion = "stalemate"
	ThreefoldRepetition Conclusion = "threefold_repetition"
	FiftyMoveRule       Conclusion = "fifty_move_rule"
	AgreedDraw          Conclusion = "agreed_draw"
)

var conclusions = map[Conclusion]bool{
	InProgress: true, Checkmate: true, Resign: true, Timeout: true,
	Stalemate: true, ThreefoldRepetition: true, FiftyMoveRule: true, AgreedDraw: true,
}

// ParseConclusion accepts the snake_case codes above.
func ParseConclusion(raw string) (Conclusion, error) {
	c := Conclusion(raw)
	if !conclusions[c] {
		return "", fmt.Errorf("unknown conclusion %q", raw)
	}
	return c, nil
}

// IsDraw reports whether c ends the game without a winner.
func (c Conclusion) IsDraw() bool {
	switch c {
	case Stalemate, ThreefoldRepetition, FiftyMoveRule, AgreedDraw:
		return true
	}
	return false
}

// Winner values match the contract enum.
type Winner string

const (
	WinnerNone Winner = "none"
	WinnerHost Winner = "host"
	WinnerAway Winner = "away"
	WinnerDraw Winner = "draw"
)

// WinnerOf returns the winner value for side.
func WinnerOf(side chess.Side) Winner {
	if side == chess.Host {
		return WinnerHost
	}
	return WinnerAway
}

// Sentinel errors; the transport layer maps these to HTTP codes and surfaces
// the strings verbatim as reason codes.
var (
	ErrIllegalMove        = errors.New("illegal_move")
	ErrTimedOut           = errors.New("timed_out")
	ErrInvalidClaim       = errors.New("invalid_claim")
	ErrInvariantViolation = errors.New("invariant_violation")
	ErrGameOver           = errors.New("game_not_in_progress")
	ErrBadSetup           = errors.New("invalid_setup")
)

// Game is the domain entity: one board, two clocks, the position history and
// the conclusion. Operations never mutate the receiver; they return a new
// *Game so a failed operation leaves every entity unchanged and the caller can
// compare-and-swap on StateVersion.
type Game struct {
	ID         uuid.UUID
	Mode       Mode
	Board      *chess.Board
	SideToMove chess.Side
	// Ply starts at 1 and is incremented by every accepted move.
	Ply                      int
	LastCaptureOrPawnMovePly int
	Clock                    clock.Clock
	History                  history.History
	DrawOffers               [2]bool
	Moves                    []chess.Move
	Conclusion               Conclusion
	Winner                   Winner
	StateVersion             int
	CreatedAt                time.Time
	UpdatedAt                time.Time
	EndedAt                  *time.Time
}

// Setup describes a new game.
type Setup struct {
	Mode    string
	First   chess.Side
	Control clock.Control
	// FEN, when set, replaces the standard layout; its side to move
	// overrides First.
	FEN string
}

// NewGame starts a game. The initial position is recorded as the first
// snapshot, so the history always holds exactly Ply entries.
func NewGame(id uuid.UUID, s Setup, now time.Time) (*Game, error) {
	mode, err := LookupMode(s.Mode)
	if err != nil {
		return nil, err
	}
	if err := s.Control.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSetup, err)
	}

	board, first, halfmoves := mode.Layout(), s.First, 0
	if s.FEN != "" {
		if mode.Name() != DefaultMode {
			return nil, fmt.Errorf("%w: fen start requires chess mode", ErrBadSetup)
		}
		board, first, err = chess.FromFEN(s.FEN)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadSetup, err)
		}
		halfmoves = chess.HalfmoveClock(s.FEN)
		if err := checkKings(board); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadSetup, err)
		}
		if chess.InCheck(board, first.Other()) {
			return nil, fmt.Errorf("%w: side not to move is in check", ErrBadSetup)
		}
	}

	g := &Game{
		ID:                       id,
		Mode:                     mode,
		Board:                    board,
		SideToMove:               first,
		Ply:                      1,
		LastCaptureOrPawnMovePly: 1 - halfmoves,
		Clock:                    clock.New(s.Control, now),
		Conclusion:               InProgress,
		Winner:                   WinnerNone,
		CreatedAt:                now,
		UpdatedAt:                now,
	}
	g.History.Record(g.Ply, mode.Snapshot(board, first))
	g.evaluate(now)
	return g, nil
}

// InProgress reports whether the game has not concluded.
func (g *Game) InProgress() bool { return g.Conclusion == InProgress }

// AttemptMove plays m for side. The clock of the side to move is checked
// before anything else: once its boundary has passed the game ends with
// Timeout and the terminal game is returned together with ErrTimedOut.
func (g *Game) AttemptMove(side chess.Side, m chess.Move, now time.Time) (*Game, error) {
	if err := g.ensurePlayable(); err != nil {
		return nil, err
	}
	if timedOut := g.timeoutIfExpired(now); timedOut != nil {
		return timedOut, ErrTimedOut
	}
	if side != g.SideToMove {
		return nil, fmt.Errorf("%w: %s is not to move", ErrIllegalMove, side)
	}

	next := g.clone()
	eff, ok := next.Mode.ValidateAndApply(next.Board, side, m)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrIllegalMove, m)
	}
	next.Ply++
	if eff.ResetsFiftyMoveCount() {
		next.LastCaptureOrPawnMovePly = next.Ply
	}
	next.Clock.TurnEnd(side, now)
	next.SideToMove = side.Other()
	next.History.Record(next.Ply, next.Mode.Snapshot(next.Board, next.SideToMove))
	next.DrawOffers = [2]bool{}
	next.Moves = append(next.Moves, m)
	next.touch(now)
	next.evaluate(now)
	return next, nil
}

// OfferDraw records a standing draw offer from side. The offer lapses with
// the next accepted move.
func (g *Game) OfferDraw(side chess.Side, now time.Time) (*Game, error) {
	if err := g.ensurePlayable(); err != nil {
		return nil, err
	}
	if timedOut := g.timeoutIfExpired(now); timedOut != nil {
		return timedOut, ErrTimedOut
	}
	next := g.clone()
	next.DrawOffers[side] = true
	next.touch(now)
	return next, nil
}

// ClaimDraw ends the game as a draw for reason. AgreedDraw needs a standing
// offer from the opponent; ThreefoldRepetition and FiftyMoveRule must be
// claimable right now.
func (g *Game) ClaimDraw(side chess.Side, reason Conclusion, now time.Time) (*Game, error) {
	if err := g.ensurePlayable(); err != nil {
		return nil, err
	}
	if timedOut := g.timeoutIfExpired(now); timedOut != nil {
		return timedOut, ErrTimedOut
	}
	switch reason {
	case AgreedDraw:
		if !g.DrawOffers[side.Other()] {
			return nil, fmt.Errorf("%w: no standing offer from %s", ErrInvalidClaim, side.Other())
		}
	case ThreefoldRepetition, FiftyMoveRule:
		if !g.claimable(reason) {
			return nil, fmt.Errorf("%w: %s does not hold", ErrInvalidClaim, reason)
		}
	default:
		return nil, fmt.Errorf("%w: %q is not a draw reason", ErrInvalidClaim, reason)
	}
	next := g.clone()
	next.touch(now)
	next.conclude(reason, WinnerDraw, now)
	return next, nil
}

// Resign ends the game with side losing.
func (g *Game) Resign(side chess.Side, now time.Time) (*Game, error) {
	if err := g.ensurePlayable(); err != nil {
		return nil, err
	}
	next := g.clone()
	next.touch(now)
	next.conclude(Resign, WinnerOf(side.Other()), now)
	return next, nil
}

// ReportTimeout ends the game with side losing on time. Whether side's
// boundary has actually passed is the caller's decision.
func (g *Game) ReportTimeout(side chess.Side, now time.Time) (*Game, error) {
	if err := g.ensurePlayable(); err != nil {
		return nil, err
	}
	next := g.clone()
	next.touch(now)
	next.conclude(Timeout, WinnerOf(side.Other()), now)
	return next, nil
}

// LegalMoves lists the moves side could play now. A concluded game has none.
func (g *Game) LegalMoves(side chess.Side) []chess.Move {
	if !g.InProgress() {
		return nil
	}
	return g.Mode.LegalMoves(g.Board, side)
}

// ClaimableDraws lists the optional draws that could be claimed right now.
// Claimability is derived, so it is lost as soon as a condition stops
// holding.
func (g *Game) ClaimableDraws() []Conclusion {
	if !g.InProgress() {
		return nil
	}
	var out []Conclusion
	for _, c := range []Conclusion{ThreefoldRepetition, FiftyMoveRule} {
		if g.claimable(c) {
			out = append(out, c)
		}
	}
	return out
}

// Boundary is the instant the side to move runs out of time.
func (g *Game) Boundary() time.Time {
	return g.Clock.Boundary(g.SideToMove)
}

// Expired reports whether the side to move has passed its boundary at now.
func (g *Game) Expired(now time.Time) bool {
	return g.InProgress() && g.Clock.Expired(g.SideToMove, now)
}

// RemainingAt returns both sides' main time as shown at now.
func (g *Game) RemainingAt(now time.Time) [2]time.Duration {
	out := g.Clock.Remaining
	if g.InProgress() {
		out[g.SideToMove] = g.Clock.RemainingAt(g.SideToMove, now)
	}
	return out
}

// FEN renders the current position.
func (g *Game) FEN() string {
	return chess.FEN(g.Board, g.SideToMove, g.Ply-g.LastCaptureOrPawnMovePly, 1+len(g.Moves)/2)
}

func (g *Game) claimable(c Conclusion) bool {
	switch c {
	case ThreefoldRepetition:
		return g.History.Repetition()
	case FiftyMoveRule:
		return history.FiftyMove(g.Ply, g.LastCaptureOrPawnMovePly)
	}
	return false
}

// ensurePlayable rejects operations on concluded or corrupted games.
func (g *Game) ensurePlayable() error {
	if !g.InProgress() {
		return ErrGameOver
	}
	return checkKings(g.Board)
}

func (g *Game) timeoutIfExpired(now time.Time) *Game {
	if !g.Clock.Expired(g.SideToMove, now) {
		return nil
	}
	next := g.clone()
	next.touch(now)
	next.conclude(Timeout, WinnerOf(g.SideToMove.Other()), now)
	return next
}

// evaluate concludes the game when the side to move is checkmated or
// stalemated, in that priority.
func (g *Game) evaluate(now time.Time) {
	switch g.Mode.Evaluate(g.Board, g.SideToMove) {
	case chess.Checkmated:
		g.conclude(Checkmate, WinnerOf(g.SideToMove.Other()), now)
	case chess.Stalemated:
		g.conclude(Stalemate, WinnerDraw, now)
	}
}

func (g *Game) conclude(c Conclusion, w Winner, now time.Time) {
	ended := now
	g.Conclusion, g.Winner, g.EndedAt = c, w, &ended
}

func (g *Game) touch(now time.Time) {
	g.StateVersion++
	g.UpdatedAt = now
}

func (g *Game) clone() *Game {
	c := *g
	c.Board = g.Board.Clone()
	c.History = g.History.Clone()
	c.Moves = append([]chess.Move(nil), g.Moves...)
	return &c
}

func checkKings(b *chess.Board) error {
	for _, side := range []chess.Side{chess.Host, chess.Away} {
		if _, ok := b.King(side); !ok {
			return fmt.Errorf("%w: %s does not have exactly one king", ErrInvariantViolation, side)
		}
	}
	if n := len(b.Pieces()); n > chess.MaxPieces {
		return fmt.Errorf("%w: %d pieces on the board", ErrInvariantViolation, n)
	}
	return nil
}
