// Package db embeds the goose migrations for the games, moves and
// game_results tables. cmd/migrate and the postgres integration tests
// apply them from this FS.
package db

import "embed"

// MigrationsDir is the directory inside Migrations that goose reads.
const MigrationsDir = "migrations"

//go:embed migrations/*.sql
var Migrations embed.FS
