package game

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kasupel/server/internal/domain/chess"
	"github.com/kasupel/server/internal/domain/clock"
	"github.com/kasupel/server/internal/domain/history"
)

// PieceState is one persisted piece.
type PieceState struct {
	Type              string `json:"type"`
	Square            string `json:"square"`
	Side              string `json:"side"`
	HasMoved          bool   `json:"has_moved"`
	JustDoubleStepped bool   `json:"just_double_stepped"`
}

// ControlState is the persisted time control. Durations are nanoseconds so
// they round-trip exactly.
type ControlState struct {
	Main       time.Duration `json:"main_ns"`
	FixedExtra time.Duration `json:"fixed_extra_ns"`
	Increment  time.Duration `json:"increment_ns"`
}

// State is the persisted representation of a game. It round-trips exactly
// through Game.State and FromState.
type State struct {
	Mode                     string        `json:"mode"`
	Pieces                   []PieceState  `json:"pieces"`
	SideToMove               string        `json:"side_to_move"`
	Ply                      int           `json:"ply"`
	LastCaptureOrPawnMovePly int           `json:"last_capture_or_pawn_move_ply"`
	Control                  ControlState  `json:"time_control"`
	HostRemaining            time.Duration `json:"host_remaining_ns"`
	AwayRemaining            time.Duration `json:"away_remaining_ns"`
	TurnStartedAt            time.Time     `json:"turn_started_at"`
	Snapshots                []string      `json:"snapshots"`
	HostOffersDraw           bool          `json:"host_offers_draw"`
	AwayOffersDraw           bool          `json:"away_offers_draw"`
	Moves                    []string      `json:"moves"`
	Conclusion               string        `json:"conclusion"`
	Winner                   string        `json:"winner"`
	StateVersion             int           `json:"state_version"`
	CreatedAt                time.Time     `json:"created_at"`
	UpdatedAt                time.Time     `json:"updated_at"`
	EndedAt                  *time.Time    `json:"ended_at,omitempty"`
}

// State captures g for storage.
func (g *Game) State() State {
	pieces := g.Board.Pieces()
	s := State{
		Mode:                     g.Mode.Name(),
		Pieces:                   make([]PieceState, 0, len(pieces)),
		SideToMove:               g.SideToMove.String(),
		Ply:                      g.Ply,
		LastCaptureOrPawnMovePly: g.LastCaptureOrPawnMovePly,
		Control: ControlState{
			Main:       g.Clock.Control.Main,
			FixedExtra: g.Clock.Control.FixedExtra,
			Increment:  g.Clock.Control.Increment,
		},
		HostRemaining:  g.Clock.Remaining[chess.Host],
		AwayRemaining:  g.Clock.Remaining[chess.Away],
		TurnStartedAt:  g.Clock.TurnStartedAt,
		Snapshots:      g.History.Arrangements(),
		HostOffersDraw: g.DrawOffers[chess.Host],
		AwayOffersDraw: g.DrawOffers[chess.Away],
		Moves:          make([]string, len(g.Moves)),
		Conclusion:     string(g.Conclusion),
		Winner:         string(g.Winner),
		StateVersion:   g.StateVersion,
		CreatedAt:      g.CreatedAt,
		UpdatedAt:      g.UpdatedAt,
		EndedAt:        g.EndedAt,
	}
	for _, p := range pieces {
		s.Pieces = append(s.Pieces, PieceState{
			Type:              p.Type.String(),
			Square:            p.Square.String(),
			Side:              p.Side.String(),
			HasMoved:          p.HasMoved,
			JustDoubleStepped: p.JustDoubleStepped,
		})
	}
	for i, m := range g.Moves {
		s.Moves[i] = m.String()
	}
	return s
}

// FromState restores a persisted game. A state that breaks an invariant is
// rejected with ErrInvariantViolation; such a game cannot be continued.
func FromState(id uuid.UUID, s State) (*Game, error) {
	mode, err := LookupMode(s.Mode)
	if err != nil {
		return nil, corrupt("%v", err)
	}
	pieces := make([]chess.Piece, 0, len(s.Pieces))
	for _, ps := range s.Pieces {
		p, err := ps.piece()
		if err != nil {
			return nil, corrupt("%v", err)
		}
		pieces = append(pieces, p)
	}
	board, err := chess.Restore(pieces)
	if err != nil {
		return nil, corrupt("%v", err)
	}
	side, err := chess.ParseSide(s.SideToMove)
	if err != nil {
		return nil, corrupt("%v", err)
	}
	conclusion, err := ParseConclusion(s.Conclusion)
	if err != nil {
		return nil, corrupt("%v", err)
	}
	moves := make([]chess.Move, 0, len(s.Moves))
	for _, raw := range s.Moves {
		m, err := chess.ParseMove(raw)
		if err != nil {
			return nil, corrupt("%v", err)
		}
		moves = append(moves, m)
	}

	g := &Game{
		ID:                       id,
		Mode:                     mode,
		Board:                    board,
		SideToMove:               side,
		Ply:                      s.Ply,
		LastCaptureOrPawnMovePly: s.LastCaptureOrPawnMovePly,
		Clock: clock.Clock{
			Control: clock.Control{
				Main:       s.Control.Main,
				FixedExtra: s.Control.FixedExtra,
				Increment:  s.Control.Increment,
			},
			Remaining:     [2]time.Duration{s.HostRemaining, s.AwayRemaining},
			TurnStartedAt: s.TurnStartedAt,
		},
		History:      history.FromArrangements(s.Snapshots),
		DrawOffers:   [2]bool{s.HostOffersDraw, s.AwayOffersDraw},
		Moves:        moves,
		Conclusion:   conclusion,
		Winner:       Winner(s.Winner),
		StateVersion: s.StateVersion,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		EndedAt:      s.EndedAt,
	}
	if err := g.checkInvariants(); err != nil {
		return nil, err
	}
	return g, nil
}

func (ps PieceState) piece() (chess.Piece, error) {
	t, err := chess.ParsePieceType(ps.Type)
	if err != nil {
		return chess.Piece{}, err
	}
	sq, err := chess.ParseSquare(ps.Square)
	if err != nil {
		return chess.Piece{}, err
	}
	side, err := chess.ParseSide(ps.Side)
	if err != nil {
		return chess.Piece{}, err
	}
	return chess.Piece{
		Type:              t,
		Side:              side,
		Square:            sq,
		HasMoved:          ps.HasMoved,
		JustDoubleStepped: ps.JustDoubleStepped,
	}, nil
}

func (g *Game) checkInvariants() error {
	if g.Ply < 1 {
		return corrupt("ply %d", g.Ply)
	}
	if g.History.Len() != g.Ply {
		return corrupt("%d snapshots for ply %d", g.History.Len(), g.Ply)
	}
	if g.LastCaptureOrPawnMovePly > g.Ply {
		return corrupt("last capture ply %d after ply %d", g.LastCaptureOrPawnMovePly, g.Ply)
	}
	switch g.Winner {
	case WinnerNone, WinnerHost, WinnerAway, WinnerDraw:
	default:
		return corrupt("unknown winner %q", g.Winner)
	}
	if g.InProgress() != (g.Winner == WinnerNone) {
		return corrupt("conclusion %s with winner %s", g.Conclusion, g.Winner)
	}
	if g.Conclusion.IsDraw() != (g.Winner == WinnerDraw) {
		return corrupt("conclusion %s with winner %s", g.Conclusion, g.Winner)
	}
	if !g.InProgress() {
		return nil
	}
	if g.Clock.Remaining[chess.Host] < 0 || g.Clock.Remaining[chess.Away] < 0 {
		return corrupt("negative remaining time")
	}
	return checkKings(g.Board)
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvariantViolation}, args...)...)
}
