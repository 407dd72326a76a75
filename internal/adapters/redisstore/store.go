// Package redisstore keeps games, per-game locks and rate-limit windows in Redis.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/kasupel/server/internal/domain/game"
	"github.com/kasupel/server/internal/ports"
)

const (
	// keyBoundaries scores every in-progress game by its clock boundary in
	// unix milliseconds.
	keyBoundaries = "games:boundaries"
	ttlConcluded  = 24 * time.Hour
)

func gameKey(id uuid.UUID) string { return "game:" + id.String() }

// NewClient connects to REDIS_URL and pings the server.
func NewClient(ctx context.Context, rawURL string) (*redis.Client, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// Store is a Redis-backed GameStore. Each game is one JSON document; writes
// are optimistic transactions watching that key.
type Store struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Store { return &Store{rdb: rdb} }

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*game.Game, error) {
	raw, err := s.rdb.Get(ctx, gameKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get game: %w", err)
	}
	return decode(id, raw)
}

func (s *Store) Insert(ctx context.Context, g *game.Game) error {
	key := gameKey(g.ID)
	raw, err := json.Marshal(g.State())
	if err != nil {
		return fmt.Errorf("marshal game: %w", err)
	}
	err = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return ports.ErrVersionConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			s.write(ctx, pipe, g, raw)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return ports.ErrVersionConflict
	}
	return err
}

// SaveIfVersion overwrites the game only when the stored StateVersion equals
// expectedVersion. A concurrent write to the key between the read and the
// commit aborts the transaction and is reported as a conflict too.
func (s *Store) SaveIfVersion(ctx context.Context, g *game.Game, expectedVersion int) error {
	key := gameKey(g.ID)
	raw, err := json.Marshal(g.State())
	if err != nil {
		return fmt.Errorf("marshal game: %w", err)
	}
	err = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ports.ErrNotFound
		}
		if err != nil {
			return err
		}
		var st game.State
		if err := json.Unmarshal(cur, &st); err != nil {
			return fmt.Errorf("unmarshal game: %w", err)
		}
		if st.StateVersion != expectedVersion {
			return ports.ErrVersionConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			s.write(ctx, pipe, g, raw)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return ports.ErrVersionConflict
	}
	return err
}

// write queues the document and its boundary index entry. Concluded games
// leave the index and expire after a day.
func (s *Store) write(ctx context.Context, pipe redis.Pipeliner, g *game.Game, raw []byte) {
	key := gameKey(g.ID)
	if g.InProgress() {
		pipe.Set(ctx, key, raw, 0)
		pipe.ZAdd(ctx, keyBoundaries, redis.Z{
			Score:  float64(g.Boundary().UnixMilli()),
			Member: g.ID.String(),
		})
		return
	}
	pipe.Set(ctx, key, raw, ttlConcluded)
	pipe.ZRem(ctx, keyBoundaries, g.ID.String())
}

// ListExpired reads the boundary index up to now.
func (s *Store) ListExpired(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	members, err := s.rdb.ZRangeByScore(ctx, keyBoundaries, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("list expired: %w", err)
	}
	out := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		id, err := uuid.Parse(m)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out, nil
}

func decode(id uuid.UUID, raw []byte) (*game.Game, error) {
	var st game.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("unmarshal game: %w", err)
	}
	return game.FromState(id, st)
}
