package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"compliance/internal/platform/database"
	"compliance/internal/platform/migrations"
)

func (c *cli) migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the Postgres schema",
	}
	steps := []struct {
		use, short string
		run        func(ctx context.Context, db *sql.DB, logger *slog.Logger) error
	}{
		{"up", "Apply all pending migrations", migrations.Up},
		{"down", "Roll back the most recent migration", migrations.Down},
		{"status", "Show which migrations have been applied", migrations.Status},
	}
	for _, step := range steps {
		cmd.AddCommand(&cobra.Command{
			Use:   step.use,
			Short: step.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.withDatabase(cmd.Context(), func(db *sql.DB) error {
					return step.run(cmd.Context(), db, c.logger)
				})
			},
		})
	}
	return cmd
}

func (c *cli) withDatabase(ctx context.Context, fn func(db *sql.DB) error) error {
	if c.cfg.Database.URL == "" {
		return errors.New("database.url is not configured (set COMPLIANCE_DATABASE_URL)")
	}
	db, err := database.Open(ctx, c.cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}
