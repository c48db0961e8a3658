package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/alem-hub/adaptive-learning/internal/infrastructure/persistence/postgres"
	"github.com/alem-hub/adaptive-learning/pkg/logger"
)

func newMigrateCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the course catalog schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd.Context(), root, func(ctx context.Context, m *postgres.Migrator, log *logger.Logger) error {
					applied, err := m.Migrate(ctx)
					if err != nil {
						return err
					}
					log.Info("migrations applied", logger.Int("count", applied))
					fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", applied)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the latest migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd.Context(), root, func(ctx context.Context, m *postgres.Migrator, _ *logger.Logger) error {
					if err := m.Rollback(ctx); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "rolled back latest migration")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show applied and pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd.Context(), root, func(ctx context.Context, m *postgres.Migrator, _ *logger.Logger) error {
					status, err := m.Status(ctx)
					if err != nil {
						return err
					}
					printMigrations(cmd, status)
					return nil
				})
			},
		},
	)
	return cmd
}

// withMigrator opens only the database; migrations need neither Redis nor
// the adaptive learning clients.
func withMigrator(ctx context.Context, root *rootOptions, fn func(context.Context, *postgres.Migrator, *logger.Logger) error) error {
	cfg, log, err := root.load()
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	db, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL, cfg.Database.PoolSettings())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	return fn(ctx, postgres.NewMigrator(db), log)
}

func printMigrations(cmd *cobra.Command, migrations []postgres.Migration) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tNAME\tSTATUS\tAPPLIED AT")
	for _, m := range migrations {
		status, at := "pending", "-"
		if m.IsApplied {
			status, at = "applied", m.AppliedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", m.Version, m.Name, status, at)
	}
	_ = w.Flush()
}
