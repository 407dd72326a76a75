package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kasupel/server/internal/domain/game"
	"github.com/kasupel/server/internal/ports"
)

// Store is a thread-safe in-memory GameStore. Games are immutable values,
// so handing out the stored pointer is safe.
type Store struct {
	mu    sync.Mutex
	games map[uuid.UUID]*game.Game
}

// New creates an empty Store.
func New() *Store {
	return &Store{games: make(map[uuid.UUID]*game.Game)}
}

func (s *Store) GetByID(_ context.Context, id uuid.UUID) (*game.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return g, nil
}

func (s *Store) Insert(_ context.Context, g *game.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[g.ID]; ok {
		return ports.ErrVersionConflict
	}
	s.games[g.ID] = g
	return nil
}

// SaveIfVersion overwrites the game only when the current stored StateVersion
// equals expectedVersion, providing optimistic concurrency safety.
func (s *Store) SaveIfVersion(_ context.Context, g *game.Game, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.games[g.ID]
	if !ok {
		return ports.ErrNotFound
	}
	if cur.StateVersion != expectedVersion {
		return ports.ErrVersionConflict
	}
	s.games[g.ID] = g
	return nil
}

// ListExpired returns expired games ordered by boundary, earliest first.
func (s *Store) ListExpired(_ context.Context, now time.Time) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var expired []*game.Game
	for _, g := range s.games {
		if g.Expired(now) {
			expired = append(expired, g)
		}
	}
	sort.Slice(expired, func(i, j int) bool {
		return expired[i].Boundary().Before(expired[j].Boundary())
	})
	out := make([]uuid.UUID, len(expired))
	for i, g := range expired {
		out[i] = g.ID
	}
	return out, nil
}
