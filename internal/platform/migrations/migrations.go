// Package migrations applies the embedded goose SQL migrations.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed sql/*.sql
var files embed.FS

// Up applies all pending migrations.
func Up(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	return run(ctx, db, logger, "up")
}

// Down rolls back the most recent migration.
func Down(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	return run(ctx, db, logger, "down")
}

// Status logs the applied state of every migration.
func Status(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	return run(ctx, db, logger, "status")
}

func run(ctx context.Context, db *sql.DB, logger *slog.Logger, command string) error {
	goose.SetBaseFS(files)
	goose.SetLogger(&slogGooseLogger{logger: logger})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	logger.InfoContext(ctx, "running migrations", "command", command)
	if err := goose.RunContext(ctx, command, db, "sql"); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// slogGooseLogger adapts goose's printf-style logger to slog.
type slogGooseLogger struct {
	logger *slog.Logger
}

func (l *slogGooseLogger) Printf(format string, v ...any) {
	l.logger.Info(fmt.Sprintf(format, v...), "component", "migrations")
}

// Fatalf logs at error level without exiting; goose returns the error to the caller.
func (l *slogGooseLogger) Fatalf(format string, v ...any) {
	l.logger.Error(fmt.Sprintf(format, v...), "component", "migrations")
}
