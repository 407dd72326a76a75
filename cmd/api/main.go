package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kasupel/server/internal/adapters/archive"
	"github.com/kasupel/server/internal/adapters/memory"
	pgstore "github.com/kasupel/server/internal/adapters/postgres"
	"github.com/kasupel/server/internal/adapters/redisstore"
	"github.com/kasupel/server/internal/config"
	"github.com/kasupel/server/internal/obslog"
	"github.com/kasupel/server/internal/ports"
	transporthttp "github.com/kasupel/server/internal/transport/http"
	"github.com/kasupel/server/internal/usecase"
)

func main() {
	obslog.InitFromEnv()
	log := obslog.L()
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config", zap.Error(err))
	}
	presets, err := config.LoadTimeControls(cfg.TimeControlsFile)
	if err != nil {
		log.Fatal("time controls", zap.Error(err))
	}
	if _, err := presets.Lookup(cfg.DefaultTimeControl); err != nil {
		log.Fatal("default time control", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = redisstore.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
		log.Info("connected to redis")
	}

	deps := usecase.Deps{
		Locker:  memory.NewKeyedLocker(),
		Limiter: memory.AlwaysAllow{},
	}

	switch {
	case cfg.DatabaseURL != "":
		pool := connectPostgres(ctx, log, cfg.DatabaseURL)
		defer pool.Close()
		deps.Store = pgstore.New(pool)
	case rdb != nil:
		deps.Store = redisstore.New(rdb)
	default:
		log.Warn("no DATABASE_URL or REDIS_URL; games are kept in memory")
		deps.Store = memory.New()
	}

	if rdb != nil {
		deps.Locker = redisstore.NewLocker(rdb, cfg.LockTTL)
		if cfg.RateLimitPerMinute > 0 {
			deps.Limiter = redisstore.NewRateLimiter(rdb, cfg.RateLimitPerMinute, time.Minute)
		}
	} else if cfg.RateLimitPerMinute > 0 {
		deps.Limiter = memory.NewWindowLimiter(cfg.RateLimitPerMinute, time.Minute)
	}

	if cfg.ArchiveDatabaseURL != "" {
		repo, err := archive.NewRepository(cfg.ArchiveDatabaseURL)
		if err != nil {
			log.Fatal("archive", zap.Error(err))
		}
		defer repo.Close()
		deps.Archive = repo
	}

	sweeper := usecase.NewTimeoutSweeper(deps)
	go sweeper.Run(ctx, cfg.TimerCheckInterval)

	h := transporthttp.NewHandlers(
		usecase.NewGameCreator(deps, presets, cfg.DefaultTimeControl),
		usecase.NewGameGetter(deps),
		usecase.NewMoveSubmitter(deps),
		usecase.NewDrawHandler(deps),
		usecase.NewResigner(deps),
		presets,
		deps.Now,
	)
	e := transporthttp.New(h, cfg.CORSOrigins)

	go func() {
		log.Info("starting", zap.String("port", cfg.Port), zap.String("store", storeName(deps.Store)))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
	log.Info("stopped")
}

func connectPostgres(ctx context.Context, log *zap.Logger, url string) *pgxpool.Pool {
	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	pool, err := pgxpool.New(connCtx, url)
	cancel()
	if err != nil {
		log.Fatal("pgxpool.New", zap.Error(err))
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		log.Fatal("db ping", zap.Error(err))
	}
	log.Info("connected to database")
	return pool
}

func storeName(s ports.GameStore) string {
	switch s.(type) {
	case *pgstore.Store:
		return "postgres"
	case *redisstore.Store:
		return "redis"
	default:
		return "memory"
	}
}
