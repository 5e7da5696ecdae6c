package cmd

import (
	"fmt"

	"guidehub/pkg/database"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()

			applied, err := database.Migrate(cmd.Context(), config.Database, logger)
			if err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}

			logger.Info("Migrations complete", zap.Int("applied", applied))
			return nil
		},
	}
}
