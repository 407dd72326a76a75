package ports

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/kasupel/server/internal/domain/game"
)

// Sentinel store errors.
var (
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict")
	ErrLockBusy        = errors.New("game is busy")
)

// GameStore is the persistence interface for games.
type GameStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*game.Game, error)
	Insert(ctx context.Context, g *game.Game) error
	// SaveIfVersion overwrites the game only when the stored StateVersion
	// equals expectedVersion. Returns ErrVersionConflict otherwise.
	SaveIfVersion(ctx context.Context, g *game.Game, expectedVersion int) error
	// ListExpired returns the in-progress games whose side to move has
	// reached its clock boundary at now.
	ListExpired(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}

// Locker provides the per-game mutual exclusion scope held across every
// mutating operation. unlock must be called exactly once.
type Locker interface {
	Lock(ctx context.Context, id uuid.UUID) (unlock func(), err error)
}

// ResultArchive receives every game once it has concluded.
type ResultArchive interface {
	Archive(ctx context.Context, g *game.Game) error
}

// RateLimiter gates requests by IP and optional client token.
type RateLimiter interface {
	Allow(ctx context.Context, ip, token string) bool
}
