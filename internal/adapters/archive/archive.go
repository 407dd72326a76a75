// Package archive writes concluded games to the game_results table.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/kasupel/server/internal/domain/chess"
	"github.com/kasupel/server/internal/domain/clock"
	"github.com/kasupel/server/internal/domain/game"
)

const queryUpsertResult = `
INSERT INTO game_results (
    game_id, mode, conclusion, winner, time_control,
    moves_uci, pgn, started_at, ended_at, duration_ms
) VALUES (
    $1,$2,$3,$4,$5,$6,$7,$8,$9,$10
) ON CONFLICT (game_id) DO UPDATE SET
    mode=EXCLUDED.mode,
    conclusion=EXCLUDED.conclusion,
    winner=EXCLUDED.winner,
    time_control=EXCLUDED.time_control,
    moves_uci=EXCLUDED.moves_uci,
    pgn=EXCLUDED.pgn,
    started_at=EXCLUDED.started_at,
    ended_at=EXCLUDED.ended_at,
    duration_ms=EXCLUDED.duration_ms`

// Repository is a ResultArchive over database/sql.
type Repository struct {
	db *sql.DB
}

func NewRepository(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("ARCHIVE_DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Archive upserts the final result of g. Games still in progress are ignored.
func (r *Repository) Archive(ctx context.Context, g *game.Game) error {
	if r == nil || r.db == nil || g == nil || g.InProgress() {
		return nil
	}

	uci := make([]string, len(g.Moves))
	for i, m := range g.Moves {
		uci[i] = m.String()
	}
	movesUCIRaw, err := json.Marshal(uci)
	if err != nil {
		return err
	}
	ended := g.UpdatedAt
	if g.EndedAt != nil {
		ended = *g.EndedAt
	}
	duration := ended.Sub(g.CreatedAt).Milliseconds()
	if duration < 0 {
		duration = 0
	}

	_, err = r.db.ExecContext(ctx, queryUpsertResult,
		g.ID.String(),
		g.Mode.Name(),
		string(g.Conclusion),
		string(g.Winner),
		formatControl(g.Clock.Control),
		string(movesUCIRaw),
		buildPGN(g),
		g.CreatedAt, ended, duration,
	)
	return err
}

func resultToken(w game.Winner) string {
	switch w {
	case game.WinnerHost:
		return "1-0"
	case game.WinnerAway:
		return "0-1"
	case game.WinnerDraw:
		return "1/2-1/2"
	default:
		return "*"
	}
}

// formatControl renders a control as main+increment in seconds, with the
// fixed extra time appended after a slash when set.
func formatControl(c clock.Control) string {
	s := fmt.Sprintf("%d+%d", int64(c.Main/time.Second), int64(c.Increment/time.Second))
	if c.FixedExtra > 0 {
		s += fmt.Sprintf("/%d", int64(c.FixedExtra/time.Second))
	}
	return s
}

// buildPGN renders the game as PGN headers and numbered UCI movetext. Host
// is listed as White.
func buildPGN(g *game.Game) string {
	var b strings.Builder
	date := g.UpdatedAt
	if g.EndedAt != nil {
		date = *g.EndedAt
	}
	result := resultToken(g.Winner)

	b.WriteString("[Event \"Kasupel game\"]\n")
	b.WriteString(fmt.Sprintf("[Site \"%s\"]\n", g.ID))
	b.WriteString(fmt.Sprintf("[Date \"%04d.%02d.%02d\"]\n", date.Year(), int(date.Month()), date.Day()))
	b.WriteString("[White \"host\"]\n")
	b.WriteString("[Black \"away\"]\n")
	b.WriteString(fmt.Sprintf("[TimeControl \"%s\"]\n", formatControl(g.Clock.Control)))
	b.WriteString(fmt.Sprintf("[Termination \"%s\"]\n", g.Conclusion))
	b.WriteString(fmt.Sprintf("[Result \"%s\"]\n\n", result))

	// Only moves flip the side to move, so parity recovers who opened.
	first := g.SideToMove
	if len(g.Moves)%2 == 1 {
		first = first.Other()
	}
	plies := make([]string, 0, len(g.Moves)+1)
	if first == chess.Away && len(g.Moves) > 0 {
		plies = append(plies, "")
	}
	for _, m := range g.Moves {
		plies = append(plies, m.String())
	}
	for i := 0; i < len(plies); i += 2 {
		turn := i/2 + 1
		if plies[i] == "" {
			b.WriteString(fmt.Sprintf("%d...", turn))
		} else {
			b.WriteString(fmt.Sprintf("%d. %s", turn, plies[i]))
		}
		if i+1 < len(plies) {
			b.WriteString(" ")
			b.WriteString(plies[i+1])
		}
		b.WriteString(" ")
	}
	b.WriteString(result)
	return b.String()
}
