package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simple-event-calendar/server/internal/config"
	"github.com/simple-event-calendar/server/internal/storage/backend"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
		Long: `Apply or roll back the schema migrations embedded in the binary.

The backend is chosen from DATABASE_URL: postgres:// and postgresql:// URLs
use PostgreSQL, anything else is treated as a SQLite path.`,
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			if err := backend.MigrateUp(cfg.Database); err != nil {
				return fmt.Errorf("migrate up: %w", err)
			}
			return printSchemaVersion(cmd, cfg.Database)
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			cfg, err := opts.loadConfig()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			if err := backend.MigrateDown(cfg.Database, steps); err != nil {
				return fmt.Errorf("migrate down: %w", err)
			}
			return printSchemaVersion(cmd, cfg.Database)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	status := &cobra.Command{
		Use:   "status",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			return printSchemaVersion(cmd, cfg.Database)
		},
	}

	migrate.AddCommand(up, down, status)
	return migrate
}

func printSchemaVersion(cmd *cobra.Command, cfg config.DatabaseConfig) error {
	version, dirty, err := backend.SchemaVersion(cfg)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "backend: %s\nversion: %d\ndirty:   %t\n", backend.Detect(cfg.URL), version, dirty)
	return nil
}
