package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kasupel/server/internal/domain/chess"
	"github.com/kasupel/server/internal/domain/game"
	"github.com/kasupel/server/internal/ports"
)

const queryGetByID = `
SELECT state
FROM games
WHERE id = $1`

const queryInsert = `
INSERT INTO games
    (id, mode, conclusion, winner, side_to_move, ply, fen,
     boundary_at, state, state_version, created_at, updated_at, ended_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (id) DO NOTHING`

const querySaveIfVersion = `
UPDATE games SET
    conclusion    = $1,
    winner        = $2,
    side_to_move  = $3,
    ply           = $4,
    fen           = $5,
    boundary_at   = $6,
    state         = $7,
    state_version = $8,
    updated_at    = $9,
    ended_at      = $10
WHERE id = $11 AND state_version = $12`

const queryListExpired = `
SELECT id
FROM games
WHERE conclusion = 'in_progress' AND boundary_at <= $1
ORDER BY boundary_at ASC`

const queryInsertMove = `
INSERT INTO moves (game_id, seq, side, uci, from_sq, to_sq, promotion, fen_after, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (game_id, seq) DO NOTHING`

// Store is a PostgreSQL-backed GameStore. The full game lives in the state
// column; the other columns are projections for queries.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by the given connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*game.Game, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, queryGetByID, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var st game.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("unmarshal game %s: %w", id, err)
	}
	return game.FromState(id, st)
}

// Insert persists a new game. A duplicate id is reported as ErrVersionConflict.
func (s *Store) Insert(ctx context.Context, g *game.Game) error {
	raw, err := json.Marshal(g.State())
	if err != nil {
		return fmt.Errorf("marshal game: %w", err)
	}
	tag, err := s.pool.Exec(ctx, queryInsert,
		g.ID,
		g.Mode.Name(),
		string(g.Conclusion),
		string(g.Winner),
		g.SideToMove.String(),
		g.Ply,
		g.FEN(),
		boundaryAt(g),
		raw,
		g.StateVersion,
		g.CreatedAt,
		g.UpdatedAt,
		g.EndedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrVersionConflict
	}
	return nil
}

// SaveIfVersion atomically updates the game only when the stored state_version
// matches expectedVersion, and appends the latest move to the moves table in
// the same transaction. Returns ErrVersionConflict when the version differs.
func (s *Store) SaveIfVersion(ctx context.Context, g *game.Game, expectedVersion int) error {
	raw, err := json.Marshal(g.State())
	if err != nil {
		return fmt.Errorf("marshal game: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx, querySaveIfVersion,
		string(g.Conclusion),
		string(g.Winner),
		g.SideToMove.String(),
		g.Ply,
		g.FEN(),
		boundaryAt(g),
		raw,
		g.StateVersion,
		g.UpdatedAt,
		g.EndedAt,
		g.ID,
		expectedVersion,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM games WHERE id = $1)`, g.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ports.ErrNotFound
		}
		return ports.ErrVersionConflict
	}

	if n := len(g.Moves); n > 0 {
		m := g.Moves[n-1]
		var promotion *string
		if m.Promotion != chess.NoPiece {
			p := string(m.Promotion.Letter())
			promotion = &p
		}
		// Only moves flip the side to move, so the last mover is always
		// the other side.
		mover := g.SideToMove.Other()
		if _, err := tx.Exec(ctx, queryInsertMove,
			g.ID, n, mover.String(), m.String(), m.From.String(), m.To.String(),
			promotion, g.FEN(), g.UpdatedAt,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// ListExpired returns in-progress games past their boundary, earliest first.
func (s *Store) ListExpired(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, queryListExpired, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func boundaryAt(g *game.Game) *time.Time {
	if !g.InProgress() {
		return nil
	}
	b := g.Boundary()
	return &b
}
