package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"telebbs/internal/app/db"
	"telebbs/internal/configs"
	"telebbs/internal/pkg/logx"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.StorageDriver != configs.DriverPostgres {
			return fmt.Errorf("migrate requires the %s storage driver, got %s", configs.DriverPostgres, cfg.StorageDriver)
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		pool.Close()

		logx.Info("Database migrations applied.")
		return nil
	},
}
