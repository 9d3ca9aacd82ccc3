package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rezkam/taskly/internal/config"
	"github.com/rezkam/taskly/internal/infrastructure/persistence"
	"github.com/rezkam/taskly/internal/infrastructure/persistence/postgres"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations to the configured backend",
		Long: `Apply pending schema migrations.

The postgres backend is migrated without opening a connection pool.
The sqlite backend is migrated by opening the database file.
Document backends (fs, gcs) have no schema and are left untouched.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadCLIConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			switch cfg.Storage.Backend {
			case config.BackendPostgres:
				if err := postgres.Migrate(ctx, cfg.Storage.DSN); err != nil {
					return err
				}
			case config.BackendSQLite:
				store, err := persistence.Open(ctx, cfg.Storage)
				if err != nil {
					return err
				}
				if err := store.Close(); err != nil {
					return fmt.Errorf("failed to close store: %w", err)
				}
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "backend %s has no schema to migrate\n", cfg.Storage.Backend)
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s)\n", cfg.Storage.Backend)
			return nil
		},
	}
}
