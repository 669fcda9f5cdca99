package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/menucraft/api/internal/infra/postgres"
	"github.com/menucraft/api/pkg/migrations"
)

var flagMigrationsDir string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage database schema migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(_ *cobra.Command, _ []string) error {
		return withDB(func(ctx context.Context, db *postgres.DB) error {
			return migrations.NewRunner(db.DB, flagMigrationsDir).Up(ctx)
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	RunE: func(_ *cobra.Command, _ []string) error {
		return withDB(func(ctx context.Context, db *postgres.DB) error {
			return migrations.NewRunner(db.DB, flagMigrationsDir).Down(ctx)
		})
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	RunE: func(_ *cobra.Command, _ []string) error {
		return withDB(func(ctx context.Context, db *postgres.DB) error {
			return migrations.NewRunner(db.DB, flagMigrationsDir).Status(ctx)
		})
	},
}

func init() {
	migrateCmd.PersistentFlags().StringVar(&flagMigrationsDir, "dir", "migrations", "Path to SQL migration files")
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}
