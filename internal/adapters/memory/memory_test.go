package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kasupel/server/internal/adapters/memory"
	"github.com/kasupel/server/internal/domain/chess"
	"github.com/kasupel/server/internal/domain/clock"
	"github.com/kasupel/server/internal/domain/game"
	"github.com/kasupel/server/internal/ports"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newGame(t *testing.T, main time.Duration) *game.Game {
	t.Helper()
	g, err := game.NewGame(uuid.New(), game.Setup{First: chess.Host, Control: clock.Control{Main: main}}, t0)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	return g
}

func TestStoreCAS(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	g := newGame(t, time.Minute)
	if err := s.Insert(ctx, g); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := s.Insert(ctx, g); !errors.Is(err, ports.ErrVersionConflict) {
		t.Fatalf("expected duplicate insert to conflict, got %v", err)
	}

	m, _ := chess.ParseMove("e2e4")
	next, err := g.AttemptMove(chess.Host, m, t0.Add(time.Second))
	if err != nil {
		t.Fatalf("AttemptMove: %v", err)
	}
	if err := s.SaveIfVersion(ctx, next, g.StateVersion); err != nil {
		t.Fatalf("SaveIfVersion: %v", err)
	}
	if err := s.SaveIfVersion(ctx, next, g.StateVersion); !errors.Is(err, ports.ErrVersionConflict) {
		t.Fatalf("expected stale save to conflict, got %v", err)
	}
	got, err := s.GetByID(ctx, g.ID)
	if err != nil || got.Ply != 2 {
		t.Fatalf("expected saved game at ply 2, got %v (%v)", got, err)
	}
	if _, err := s.GetByID(ctx, uuid.New()); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreListExpired(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	short, long := newGame(t, 10*time.Second), newGame(t, time.Minute)
	for _, g := range []*game.Game{long, short} {
		if err := s.Insert(ctx, g); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	ids, err := s.ListExpired(ctx, t0.Add(30*time.Second))
	if err != nil {
		t.Fatalf("ListExpired: %v", err)
	}
	if len(ids) != 1 || ids[0] != short.ID {
		t.Fatalf("expected only the short game, got %v", ids)
	}
	ids, _ = s.ListExpired(ctx, t0.Add(2*time.Minute))
	if len(ids) != 2 || ids[0] != short.ID {
		t.Fatalf("expected both games, earliest first, got %v", ids)
	}

	ended, err := short.Resign(chess.Host, t0.Add(time.Second))
	if err != nil {
		t.Fatalf("Resign: %v", err)
	}
	if err := s.SaveIfVersion(ctx, ended, short.StateVersion); err != nil {
		t.Fatalf("SaveIfVersion: %v", err)
	}
	ids, _ = s.ListExpired(ctx, t0.Add(2*time.Minute))
	if len(ids) != 1 || ids[0] != long.ID {
		t.Fatalf("expected concluded games to be skipped, got %v", ids)
	}
}

func TestKeyedLockerExcludes(t *testing.T) {
	l := memory.NewKeyedLocker()
	id := uuid.New()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		overlap bool
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, id)
			if err != nil {
				t.Errorf("Lock: %v", err)
				return
			}
			mu.Lock()
			inside++
			if inside > 1 {
				overlap = true
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	if overlap {
		t.Fatal("two holders inside the same game lock")
	}
}

func TestKeyedLockerHonoursContext(t *testing.T) {
	l := memory.NewKeyedLocker()
	id := uuid.New()
	unlock, err := l.Lock(context.Background(), id)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, id); !errors.Is(err, context.DeadlineExceeded) || !errors.Is(err, ports.ErrLockBusy) {
		t.Fatalf("expected a busy deadline error, got %v", err)
	}
	other, err := l.Lock(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("expected other games to be independent: %v", err)
	}
	other()
}

func TestWindowLimiter(t *testing.T) {
	l := memory.NewWindowLimiter(2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if !l.Allow(ctx, "10.0.0.1", "") {
			t.Fatalf("request %d: expected to be allowed", i)
		}
	}
	if l.Allow(ctx, "10.0.0.1", "") {
		t.Fatal("expected the third request to be limited")
	}
	if !l.Allow(ctx, "10.0.0.1", "tok") {
		t.Fatal("expected a token to count separately from the IP")
	}
	if !(memory.AlwaysAllow{}).Allow(ctx, "10.0.0.1", "") {
		t.Fatal("AlwaysAllow denied a request")
	}
}
