package admin

import (
	"fmt"

	"github.com/cloo-solutions/mcqgen/internal/config"
	"github.com/cloo-solutions/mcqgen/internal/database"
	"github.com/cloo-solutions/mcqgen/internal/logger"
	"github.com/spf13/cobra"
)

const defaultMigrationsSource = "file://migrations"

// MigrateCmd returns the migrate command
func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			log, err := logger.New(cfg.LogMode, cfg.Debug)
			if err != nil {
				return fmt.Errorf("failed to build logger: %w", err)
			}
			defer func() { _ = log.Sync() }()

			source, _ := cmd.Flags().GetString("migrations")
			return database.Migrate(cfg.DatabaseURL, source, log)
		},
	}

	cmd.Flags().String("migrations", defaultMigrationsSource, "Migration source URL")

	return cmd
}
