package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/vncsmyrnk/polls/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/polls/internal/config"
)

// Usage: migrations <name>, where name matches the end of a migration file
// (e.g. "create_questions.up"), or "all" to apply every up migration.
func main() {
	if len(os.Args) < 2 {
		slog.Error("a migration name is required.")
		os.Exit(1)
	}
	migrationName := os.Args[1]

	config.LoadEnv()
	pg := config.PostgresFromEnv()

	db, err := sql.Open("postgres", pg.ConnString())
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if migrationName == "all" {
		if err := postgres.ApplyMigrations(ctx, db); err != nil {
			slog.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
		slog.Info("all migrations applied")
		return
	}

	content, err := postgres.MigrationFile(migrationName)
	if err != nil {
		slog.Error("failed to load migration", "name", migrationName, "error", err)
		os.Exit(1)
	}

	if _, err := db.ExecContext(ctx, string(content)); err != nil {
		slog.Error("failed to execute SQL file", "name", migrationName, "error", err)
		os.Exit(1)
	}

	slog.Info("migration file executed successfully", "name", migrationName)
}
