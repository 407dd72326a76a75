package main

import (
	"context"
	"database/sql"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/kasupel/server/internal/db"
	"github.com/kasupel/server/internal/obslog"
)

func main() {
	obslog.InitFromEnv()
	log := obslog.L()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	conn, err := sql.Open("pgx", databaseURL)
	if err != nil {
		log.Fatal("open db", zap.Error(err))
	}
	defer conn.Close()

	if err := conn.PingContext(context.Background()); err != nil {
		log.Fatal("ping db", zap.Error(err))
	}

	goose.SetBaseFS(db.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatal("goose set dialect", zap.Error(err))
	}

	if err := goose.RunContext(context.Background(), cmd, conn, db.MigrationsDir, os.Args[min(2, len(os.Args)):]...); err != nil {
		log.Fatal("goose", zap.String("command", cmd), zap.Error(err))
	}
	log.Info("migrations done", zap.String("command", cmd))
}
