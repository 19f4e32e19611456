package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ridepay/internal/app"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [up|down]",
		Short: "Apply or revert the payments schema in PostgreSQL",
		Long: `Apply or revert the embedded schema migrations.

Examples:
  payments migrate
  payments migrate down`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{app.MigrateUp, app.MigrateDown},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := app.MigrateUp
			if len(args) == 1 {
				direction = args[0]
			}

			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			db, err := app.NewDatabase(ctx, cfg.Database, nil)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			if err := app.Migrate(db, direction); err != nil {
				return err
			}

			log.Info("migrations applied", zap.String("direction", direction))
			return nil
		},
	}
}
