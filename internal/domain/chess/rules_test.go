package chess_test

import (
	"reflect"
	"sort"
	"testing"

	nchess "github.com/notnil/chess"

	"github.com/kasupel/server/internal/domain/chess"
)

const (
	startFEN     = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	kiwipeteFEN  = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"
	endgameFEN   = "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1"
	promotionFEN = "r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1"
	tacticalFEN  = "rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8"
)

func mustFEN(t *testing.T, fen string) (*chess.Board, chess.Side) {
	t.Helper()
	b, side, err := chess.FromFEN(fen)
	if err != nil {
		t.Fatalf("FromFEN(%q): %v", fen, err)
	}
	return b, side
}

func mustMove(t *testing.T, uci string) chess.Move {
	t.Helper()
	m, err := chess.ParseMove(uci)
	if err != nil {
		t.Fatalf("ParseMove(%q): %v", uci, err)
	}
	return m
}

func uciList(moves []chess.Move) []string {
	out := make([]string, len(moves))
	for i, m := range moves {
		out[i] = m.String()
	}
	sort.Strings(out)
	return out
}

func perft(b *chess.Board, side chess.Side, depth int) int {
	moves := chess.LegalMoves(b, side)
	if depth == 1 {
		return len(moves)
	}
	n := 0
	for _, m := range moves {
		next := b.Clone()
		chess.Apply(next, m)
		n += perft(next, side.Other(), depth-1)
	}
	return n
}

func TestPerft(t *testing.T) {
	cases := []struct {
		name  string
		fen   string
		depth int
		want  int
	}{
		{"start depth 1", startFEN, 1, 20},
		{"start depth 2", startFEN, 2, 400},
		{"kiwipete depth 1", kiwipeteFEN, 1, 48},
		{"kiwipete depth 2", kiwipeteFEN, 2, 2039},
		{"endgame depth 1", endgameFEN, 1, 14},
		{"endgame depth 2", endgameFEN, 2, 191},
		{"promotions depth 1", promotionFEN, 1, 6},
		{"promotions depth 2", promotionFEN, 2, 264},
		{"tactical depth 1", tacticalFEN, 1, 44},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, side := mustFEN(t, tc.fen)
			if got := perft(b, side, tc.depth); got != tc.want {
				t.Fatalf("expected %d nodes, got %d", tc.want, got)
			}
		})
	}
}

func TestPerftStartDepth3(t *testing.T) {
	if testing.Short() {
		t.Skip("slow")
	}
	if got := perft(chess.Layout(), chess.Host, 3); got != 8902 {
		t.Fatalf("expected 8902 nodes, got %d", got)
	}
}

// notnil/chess serves as an independent move generator.
func TestLegalMovesMatchOracle(t *testing.T) {
	fens := []string{
		startFEN, kiwipeteFEN, endgameFEN, promotionFEN, tacticalFEN,
		"rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 3",
		"8/8/8/K2pP2r/8/8/8/7k w - d6 0 1",
	}
	for _, fen := range fens {
		t.Run(fen, func(t *testing.T) {
			b, side := mustFEN(t, fen)
			opt, err := nchess.FEN(fen)
			if err != nil {
				t.Fatalf("oracle fen: %v", err)
			}
			var want []string
			for _, m := range nchess.NewGame(opt).ValidMoves() {
				want = append(want, m.String())
			}
			sort.Strings(want)
			if got := uciList(chess.LegalMoves(b, side)); !reflect.DeepEqual(got, want) {
				t.Fatalf("moves differ\n got: %v\nwant: %v", got, want)
			}
		})
	}
}

func TestLegalMovesDeterministicAndPure(t *testing.T) {
	b, side := mustFEN(t, kiwipeteFEN)
	before := b.Clone()
	first := chess.LegalMoves(b, side)
	second := chess.LegalMoves(b, side)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("expected identical move sequences on an unchanged board")
	}
	if !b.Equal(before) {
		t.Fatal("move generation changed the board")
	}
	for i := 1; i < len(first); i++ {
		prev, cur := first[i-1].From, first[i].From
		if prev.Rank > cur.Rank || (prev.Rank == cur.Rank && prev.File > cur.File) {
			t.Fatalf("moves not in ascending origin order at %d: %s then %s", i, first[i-1], first[i])
		}
	}
}

func TestLegalMovesNeverLeaveKingInCheck(t *testing.T) {
	for _, fen := range []string{kiwipeteFEN, endgameFEN, promotionFEN, tacticalFEN} {
		b, side := mustFEN(t, fen)
		for _, m := range chess.LegalMoves(b, side) {
			next := b.Clone()
			chess.Apply(next, m)
			if chess.InCheck(next, side) {
				t.Fatalf("%s: %s leaves %s in check", fen, m, side)
			}
		}
	}
}

func TestRejectedMovesLeaveBoardUnchanged(t *testing.T) {
	b, side := mustFEN(t, startFEN)
	before := b.Clone()
	for _, uci := range []string{"e2e5", "e7e5", "b1b3", "e1e2", "a1a3", "f1c4", "e2d3"} {
		if chess.Validate(b, side, mustMove(t, uci), false) {
			t.Fatalf("expected %s to be rejected", uci)
		}
	}
	if !b.Equal(before) {
		t.Fatal("validation changed the board")
	}
}

func TestBackRankMate(t *testing.T) {
	b, _ := mustFEN(t, "4k3/R7/8/8/8/8/8/4K2R w - - 0 1")
	m := mustMove(t, "h1h8")
	if !chess.Validate(b, chess.Host, m, false) {
		t.Fatal("expected h1h8 to be legal")
	}
	chess.Apply(b, m)
	if moves := chess.LegalMoves(b, chess.Away); len(moves) != 0 {
		t.Fatalf("expected no legal moves, got %v", uciList(moves))
	}
	if !chess.InCheck(b, chess.Away) {
		t.Fatal("expected away to be in check")
	}
	if got := chess.Evaluate(b, chess.Away); got != chess.Checkmated {
		t.Fatalf("expected checkmate, got %d", got)
	}
}

func TestStalemate(t *testing.T) {
	b, side := mustFEN(t, "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	if side != chess.Away {
		t.Fatalf("expected away to move, got %s", side)
	}
	if chess.InCheck(b, chess.Away) {
		t.Fatal("expected away not to be in check")
	}
	if moves := chess.LegalMoves(b, chess.Away); len(moves) != 0 {
		t.Fatalf("expected no legal moves, got %v", uciList(moves))
	}
	if got := chess.Evaluate(b, chess.Away); got != chess.Stalemated {
		t.Fatalf("expected stalemate, got %d", got)
	}
}

func TestEnPassant(t *testing.T) {
	b, _ := mustFEN(t, "4k3/8/8/8/4p3/8/3P4/4K3 w - - 0 1")
	chess.Apply(b, mustMove(t, "d2d4"))
	pawn := b.At(chess.Sq(3, 3))
	if pawn == nil || !pawn.JustDoubleStepped {
		t.Fatal("expected the double-stepped pawn to be marked")
	}

	capture := mustMove(t, "e4d3")
	if !chess.Validate(b, chess.Away, capture, false) {
		t.Fatal("expected en passant to be legal")
	}
	eff := chess.Apply(b, capture)
	if !eff.EnPassant || eff.Captured == nil || eff.Captured.Square != chess.Sq(3, 3) {
		t.Fatalf("unexpected effect %+v", eff)
	}
	if b.At(chess.Sq(3, 3)) != nil {
		t.Fatal("expected the captured pawn to be gone")
	}
	if p := b.At(chess.Sq(2, 3)); p == nil || p.Side != chess.Away || p.Type != chess.Pawn {
		t.Fatal("expected the capturing pawn on d3")
	}
}

func TestEnPassantExpiresAfterOneReply(t *testing.T) {
	b, _ := mustFEN(t, "4k3/8/8/8/4p3/8/3P4/4K3 w - - 0 1")
	for _, uci := range []string{"d2d4", "e8e7", "e1f1"} {
		chess.Apply(b, mustMove(t, uci))
	}
	if chess.Validate(b, chess.Away, mustMove(t, "e4d3"), false) {
		t.Fatal("expected en passant to have lapsed")
	}
	if p := b.At(chess.Sq(3, 3)); p.JustDoubleStepped {
		t.Fatal("expected the double-step marker to be cleared")
	}
}

func TestEnPassantDiscoveredCheck(t *testing.T) {
	// Removing both pawns from the fifth rank would expose the host king.
	b, side := mustFEN(t, "8/8/8/K2pP2r/8/8/8/7k w - d6 0 1")
	if chess.Validate(b, side, mustMove(t, "e5d6"), false) {
		t.Fatal("expected en passant exposing the king to be illegal")
	}
}

func TestCastling(t *testing.T) {
	cases := []struct {
		name string
		fen  string
		move string
		want bool
	}{
		{"kingside", "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "e1g1", true},
		{"queenside", "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "e1c1", true},
		{"away kingside", "r3k2r/8/8/8/8/8/8/R3K2R b KQkq - 0 1", "e8g8", true},
		{"rook moved", "r3k2r/8/8/8/8/8/8/R3K2R w Qkq - 0 1", "e1g1", false},
		{"king moved", "r3k2r/8/8/8/8/8/8/R3K2R w kq - 0 1", "e1c1", false},
		{"path blocked", "r3k2r/8/8/8/8/8/8/R3KB1R w KQkq - 0 1", "e1g1", false},
		{"queenside knight square blocked", "r3k2r/8/8/8/8/8/8/RN2K2R w KQkq - 0 1", "e1c1", false},
		{"in check", "r3k2r/8/8/8/4r3/8/8/R3K2R w KQkq - 0 1", "e1g1", false},
		{"passing square attacked", "r3k2r/8/8/8/5r2/8/8/R3K2R w KQkq - 0 1", "e1g1", false},
		{"landing square attacked", "r3k2r/8/8/8/6r1/8/8/R3K2R w KQkq - 0 1", "e1g1", false},
		{"other wing unaffected", "r3k2r/8/8/8/5r2/8/8/R3K2R w KQkq - 0 1", "e1c1", true},
		{"rook square attacked only", "r3k2r/8/8/8/1r6/8/8/R3K2R w KQkq - 0 1", "e1c1", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, side := mustFEN(t, tc.fen)
			if got := chess.Validate(b, side, mustMove(t, tc.move), false); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestCastlingMovesRook(t *testing.T) {
	b, _ := mustFEN(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	eff := chess.Apply(b, mustMove(t, "e1c1"))
	if !eff.Castled {
		t.Fatal("expected a castle")
	}
	if p := b.At(chess.Sq(0, 3)); p == nil || p.Type != chess.Rook || !p.HasMoved {
		t.Fatal("expected the rook on d1")
	}
	if p := b.At(chess.Sq(0, 2)); p == nil || p.Type != chess.King {
		t.Fatal("expected the king on c1")
	}
	if got := chess.Rights(b).String(); got != "kq" {
		t.Fatalf("expected rights kq, got %q", got)
	}
}

func TestPromotionRules(t *testing.T) {
	b, side := mustFEN(t, "4k3/P7/8/8/8/8/8/4K3 w - - 0 1")
	from, to := chess.Sq(6, 0), chess.Sq(7, 0)
	cases := []struct {
		promo chess.PieceType
		want  bool
	}{
		{chess.NoPiece, false},
		{chess.Queen, true},
		{chess.Rook, true},
		{chess.Knight, true},
		{chess.Bishop, true},
		{chess.Pawn, false},
		{chess.King, false},
	}
	for _, tc := range cases {
		m := chess.Move{From: from, To: to, Promotion: tc.promo}
		if got := chess.Validate(b, side, m, false); got != tc.want {
			t.Fatalf("promotion to %s: expected %v, got %v", tc.promo, tc.want, got)
		}
	}
	if chess.Validate(b, side, chess.Move{From: chess.Sq(0, 4), To: chess.Sq(1, 4), Promotion: chess.Queen}, false) {
		t.Fatal("expected a king move with promotion to be rejected")
	}

	chess.Apply(b, chess.Move{From: from, To: to, Promotion: chess.Knight})
	if p := b.At(to); p == nil || p.Type != chess.Knight {
		t.Fatal("expected a knight on a8")
	}
}

func TestPinnedPiece(t *testing.T) {
	b, side := mustFEN(t, "4k3/4r3/8/8/8/8/4B3/4K3 w - - 0 1")
	if chess.Validate(b, side, mustMove(t, "e2d3"), false) {
		t.Fatal("expected the pinned bishop to be stuck")
	}
	if !chess.Validate(b, side, mustMove(t, "e2d3"), true) {
		t.Fatal("expected the move to pass with the check filter off")
	}
}

func TestMissingKingIsCheck(t *testing.T) {
	b, _ := mustFEN(t, "4k3/8/8/8/8/8/8/4K3 w - - 0 1")
	placement := b.Export()
	delete(placement, chess.Sq(0, 4))
	nb, err := chess.Import(placement)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !chess.InCheck(nb, chess.Host) {
		t.Fatal("expected a side without a king to be reported in check")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	b := chess.Layout()
	exported := b.Export()
	nb, err := chess.Import(exported)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !reflect.DeepEqual(nb.Export(), exported) {
		t.Fatal("placement changed across export/import")
	}
	if !nb.Equal(b) {
		t.Fatal("expected inferred flags to match the starting position")
	}
}

func TestFENRoundTrip(t *testing.T) {
	for _, fen := range []string{
		startFEN, kiwipeteFEN, endgameFEN,
		"rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e6 0 2",
	} {
		b, side := mustFEN(t, fen)
		got := chess.FEN(b, side, chess.HalfmoveClock(fen), fullmoves(fen))
		if got != fen {
			t.Fatalf("expected %q, got %q", fen, got)
		}
	}
}

func fullmoves(fen string) int {
	n := 0
	for i := len(fen) - 1; i >= 0 && fen[i] != ' '; i-- {
		n = n*10 + int(fen[i]-'0')
	}
	return n
}

func TestSnapshot(t *testing.T) {
	b := chess.Layout()
	host := chess.Snapshot(b, chess.Host)
	if host != chess.Snapshot(chess.Layout(), chess.Host) {
		t.Fatal("expected identical positions to encode identically")
	}
	if host == chess.Snapshot(b, chess.Away) {
		t.Fatal("expected side to move to be part of the encoding")
	}

	moved := chess.Layout()
	for _, uci := range []string{"g1f3", "g8f6", "f3g1", "f6g8"} {
		chess.Apply(moved, mustMove(t, uci))
	}
	if chess.Snapshot(moved, chess.Host) != host {
		t.Fatal("expected knight shuffle to return to the start encoding")
	}

	rookShuffle := chess.Layout()
	for _, uci := range []string{"g1f3", "g8f6", "h1g1", "h8g8", "g1h1", "g8h8", "f3g1", "f6g8"} {
		chess.Apply(rookShuffle, mustMove(t, uci))
	}
	if chess.Snapshot(rookShuffle, chess.Host) == host {
		t.Fatal("expected lost castling rights to change the encoding")
	}
}

func TestParseMove(t *testing.T) {
	cases := []struct {
		raw     string
		want    chess.Move
		wantErr bool
	}{
		{raw: "e2e4", want: chess.Move{From: chess.Sq(1, 4), To: chess.Sq(3, 4)}},
		{raw: "a7a8q", want: chess.Move{From: chess.Sq(6, 0), To: chess.Sq(7, 0), Promotion: chess.Queen}},
		{raw: "E2E4", want: chess.Move{From: chess.Sq(1, 4), To: chess.Sq(3, 4)}},
		{raw: "e2", wantErr: true},
		{raw: "e2e9", wantErr: true},
		{raw: "a7a8k", wantErr: true},
		{raw: "i2e4", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := chess.ParseMove(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}
